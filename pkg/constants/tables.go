package constants

// Table names
const (
	TableUser         = "usuarios"
	TableCliente      = "clientes"
	TableOrdemServico = "ordens_servico"
	TableOSEtapa      = "os_etapas"
	TableColaborador  = "colaboradores"
	TableCentroCusto  = "centros_custo"
	TableLancamento   = "lancamentos"
	TableRateioItem   = "lancamento_rateios"
	TableAgendamento  = "agendamentos"
	TableBloqueio     = "agenda_bloqueios"
	TableOSSequence   = "os_sequencias"
)

// Common field names
const (
	FieldID               = "id"
	FieldName             = "name"
	FieldEmail            = "email"
	FieldPassword         = "password_hash"
	FieldRole             = "role"
	FieldIsActive         = "is_active"
	FieldCreatedDate      = "created_date"
	FieldLastModifiedDate = "last_modified_date"
	FieldCreatedByID      = "created_by_id"
	FieldMessage          = "message"
	ResponseError         = "error"
)

// Ordem de servico fields
const (
	FieldOSCodigo         = "codigo"
	FieldOSType           = "os_type"
	FieldOSStatus         = "status"
	FieldOSCurrentStep    = "current_step"
	FieldOSLastActiveStep = "last_active_step"
	FieldOSClienteID      = "cliente_id"
)

// OS etapa fields
const (
	FieldEtapaOSID    = "os_id"
	FieldEtapaStep    = "step"
	FieldEtapaPayload = "payload"
	FieldEtapaStatus  = "status"
	FieldEtapaVersion = "version"
)

// Collaborator fields
const (
	FieldColaboradorNome        = "nome"
	FieldColaboradorRegime      = "regime"
	FieldColaboradorSalarioBase = "salario_base"
	FieldColaboradorCustoDia    = "custo_dia"
	FieldColaboradorFuncao      = "funcao"
	FieldColaboradorAtivo       = "ativo"
)

// Cliente fields
const (
	FieldClienteNome     = "nome"
	FieldClienteCPFCNPJ  = "cpf_cnpj"
	FieldClienteEmail    = "email"
	FieldClienteTelefone = "telefone"
	FieldClienteEndereco = "endereco"
)

// Financeiro fields
const (
	FieldLancamentoDescricao    = "descricao"
	FieldLancamentoValor        = "valor"
	FieldLancamentoData         = "data"
	FieldLancamentoTipo         = "tipo"
	FieldLancamentoClassificado = "classificado"

	FieldRateioLancamentoID  = "lancamento_id"
	FieldRateioCentroCustoID = "centro_custo_id"
	FieldRateioPercentual    = "percentual"
	FieldRateioValor         = "valor"

	FieldCentroCustoNome  = "nome"
	FieldCentroCustoAtivo = "ativo"
)

// Agenda fields
const (
	FieldAgendamentoTitulo        = "titulo"
	FieldAgendamentoColaboradorID = "colaborador_id"
	FieldAgendamentoOSID          = "os_id"
	FieldAgendamentoInicio        = "inicio"
	FieldAgendamentoFim           = "fim"
	FieldAgendamentoStatus        = "status"

	FieldBloqueioData   = "data"
	FieldBloqueioMotivo = "motivo"
)
