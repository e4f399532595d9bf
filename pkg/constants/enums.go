package constants

// User roles
const (
	RoleAdmin       = "admin"
	RoleGestor      = "gestor"
	RoleColaborador = "colaborador"
	RoleCliente     = "cliente"
)

// IsAdminRole reports whether the role bypasses ownership checks
func IsAdminRole(role string) bool {
	return role == RoleAdmin || role == RoleGestor
}

// Ordem de servico status values
const (
	OSStatusRascunho    = "rascunho"
	OSStatusEmAndamento = "em_andamento"
	OSStatusConcluida   = "concluida"
)

// OS etapa status values
const (
	EtapaStatusDraft = "draft"
	EtapaStatusDone  = "done"
)

// Collaborator regimes
const (
	RegimeCLT = "CLT"
	RegimePJ  = "PJ"
)

// Appointment status values
const (
	AgendamentoConfirmado = "confirmado"
	AgendamentoPendente   = "pendente"
	AgendamentoCancelado  = "cancelado"
)

// Context keys
const (
	ContextKeyUser  = "user"
	ContextKeyToken = "token"
)

// HTTP headers
const (
	HeaderAuthorization = "Authorization"
)
