package wallet

// Default ledger sources
const (
	SourceAPI    = "api"
	SourceAdmin  = "admin"
	SourceSystem = "system"
)
