package config

const (
	EnvPrefix = "WECANTRUST"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "WECANTRUST_DB_DSN"
	EnvDBHost = "WECANTRUST_DB_HOST"
	EnvDBUser = "WECANTRUST_DB_USER"
	EnvDBName = "WECANTRUST_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
