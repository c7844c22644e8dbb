package core

import (
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host                      string
		Port                      string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Host       string
		Port       string
		User       string
		Password   string
		Name       string
		DisableTLS bool
	}

	// ZoomConfig holds the Server-to-Server OAuth app credentials and the
	// license seat -> Zoom host mappings.
	ZoomConfig struct {
		AccountID      string
		ClientID       string
		ClientSecret   string
		AuthURL        string
		BaseURL        string
		RequestTimeout time.Duration
		LicenseCount   int
		LicenseHosts   []string // index i -> license i+1; "" = unmapped seat
	}

	Config struct {
		Env      string
		Debug    bool
		TestMode bool
		AppName  string
		Build    string

		SecretKey                 string
		FrontendBaseURL           string
		DefaultFromEmail          string
		SendgridAPIKey            string
		RollbarToken              string
		PasswordResetTimeoutDelta time.Duration

		Server   ServerConfig
		Database DatabaseConfig
		Zoom     ZoomConfig
	}
)

// NewConfig loads configuration from the environment; a config/.env.<env> file
// is loaded first if it exists (ignored if it does not).
func NewConfig() (*Config, error) {
	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}

	// load .env if it exists
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// defaults
	v.SetDefault("debug", env == "DEV")
	v.SetDefault("appName", "Darasa")
	v.SetDefault("secretKey", "w3lc0me-2-d4r4s4!ch4ng3-m3-1n-pr0d")
	v.SetDefault("frontendBaseUrl", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.shutdownTimeout", 20*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "darasa")
	v.SetDefault("database.name", "darasa")
	v.SetDefault("database.disableTls", env != "PROD")
	v.SetDefault("zoom.authUrl", "https://zoom.us/oauth/token")
	v.SetDefault("zoom.baseUrl", "https://api.zoom.us/v2")
	v.SetDefault("zoom.requestTimeout", 10*time.Second)
	v.SetDefault("zoom.licenseCount", 4)

	conf := &Config{
		Env:      env,
		Debug:    v.GetBool("debug"),
		TestMode: env == "TEST",
		AppName:  v.GetString("appName"),
		Build:    v.GetString("build"),

		SecretKey:                 v.GetString("secretKey"),
		FrontendBaseURL:           v.GetString("frontendBaseUrl"),
		DefaultFromEmail:          v.GetString("defaultFromEmail"),
		SendgridAPIKey:            v.GetString("sendgridApiKey"),
		RollbarToken:              v.GetString("rollbarToken"),
		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),

		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Port:                      v.GetString("server.port"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Host:       v.GetString("database.host"),
			Port:       v.GetString("database.port"),
			User:       v.GetString("database.user"),
			Password:   v.GetString("database.password"),
			Name:       v.GetString("database.name"),
			DisableTLS: v.GetBool("database.disableTls"),
		},
		Zoom: ZoomConfig{
			AccountID:      v.GetString("zoom.accountId"),
			ClientID:       v.GetString("zoom.clientId"),
			ClientSecret:   v.GetString("zoom.clientSecret"),
			AuthURL:        v.GetString("zoom.authUrl"),
			BaseURL:        v.GetString("zoom.baseUrl"),
			RequestTimeout: v.GetDuration("zoom.requestTimeout"),
			LicenseCount:   v.GetInt("zoom.licenseCount"),
		},
	}

	// license seats are mapped one env var per seat: ZOOM_LICENSE<i>_HOST
	conf.Zoom.LicenseHosts = make([]string, conf.Zoom.LicenseCount)
	for i := 1; i <= conf.Zoom.LicenseCount; i++ {
		conf.Zoom.LicenseHosts[i-1] = CleanString(v.GetString(fmt.Sprintf("zoom.license%dHost", i)), true /* lower */)
	}

	return conf, nil
}

func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// CredentialsSet reports whether the Server-to-Server OAuth app is fully configured.
func (c ZoomConfig) CredentialsSet() bool {
	return c.AccountID != "" && c.ClientID != "" && c.ClientSecret != ""
}

// Getwd tries to find the project root (the directory holding go.mod).
// go-test changes the working directory to the test package being run during tests;
// see: https://stackoverflow.com/questions/23847003/golang-tests-and-working-directory
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	currDir := wd
	for {
		if _, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == string(os.PathSeparator) || newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}
