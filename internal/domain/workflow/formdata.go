package workflow

import (
	"sort"
	"sync"
)

// Payload is the JSON object a step form produces.
type Payload = map[string]interface{}

// FormData stores one payload per step. It never validates.
type FormData struct {
	mu          sync.RWMutex
	data        map[int]Payload
	subscribers map[int]func(step int, p Payload)
	nextSubID   int
}

func NewFormData() *FormData {
	return &FormData{
		data:        make(map[int]Payload),
		subscribers: make(map[int]func(int, Payload)),
	}
}

// Get returns a copy of the step payload, or def when the step has none.
func (f *FormData) Get(step int, def Payload) Payload {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if p, ok := f.data[step]; ok {
		return clonePayload(p)
	}
	return def
}

func (f *FormData) Has(step int) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.data[step]
	return ok
}

// Set replaces the step payload and notifies subscribers.
func (f *FormData) Set(step int, p Payload) {
	f.put(step, p)()
}

// put stores the payload and returns the subscriber notification, so callers
// holding their own locks can run it after releasing them.
func (f *FormData) put(step int, p Payload) func() {
	stored := clonePayload(p)

	f.mu.Lock()
	f.data[step] = stored
	subs := make([]func(int, Payload), 0, len(f.subscribers))
	ids := make([]int, 0, len(f.subscribers))
	for id := range f.subscribers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		subs = append(subs, f.subscribers[id])
	}
	f.mu.Unlock()

	return func() {
		for _, fn := range subs {
			fn(step, clonePayload(stored))
		}
	}
}

// Subscribe registers fn for every Set. The returned func unsubscribes.
func (f *FormData) Subscribe(fn func(step int, p Payload)) func() {
	f.mu.Lock()
	id := f.nextSubID
	f.nextSubID++
	f.subscribers[id] = fn
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.subscribers, id)
		f.mu.Unlock()
	}
}

// Steps lists the steps holding data, ascending.
func (f *FormData) Steps() []int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	steps := make([]int, 0, len(f.data))
	for s := range f.data {
		steps = append(steps, s)
	}
	sort.Ints(steps)
	return steps
}

func clonePayload(p Payload) Payload {
	if p == nil {
		return nil
	}
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return clonePayload(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
