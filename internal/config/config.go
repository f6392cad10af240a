package config

type Config struct {
	BaseURL  string
	HttpPort int
	Db       struct {
		Dsn         string
		Automigrate bool
	}
	Jwt struct {
		SecretKey string
	}
	Notifications struct {
		Email string
	}
	Smtp struct {
		Host     string
		Port     int
		Username string
		Password string
		From     string
	}
	FileUploader struct {
		CloudName    string
		ApiKey       string
		ApiSecret    string
		AllowedTypes []string
		MaxFileSize  int64
	}
	Admin struct {
		// OverridePhrase promotes a signup to admin when the first name
		// starts with it. The phrase is stripped from the stored name.
		OverridePhrase string
		SeedEmail      string
		SeedPassword   string
	}
	RedisServer  string
	KafkaServers string
}
