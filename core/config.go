package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var Conf *Config

type DatabaseConfig struct {
	Engine        string
	Name          string
	User          string
	Password      string
	AdminUser     string
	AdminPassword string
	Host          string
	Port          string
	DisableTLS    bool
}

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

type Config struct {
	Debug    bool
	TestMode bool
	Env      string // DEV (local; default), TEST, QA, PROD
	AppName  string
	Build    string

	defaultFromEmail string
	SendgridApiKey   string
	RollbarToken     string

	Server struct {
		Host string
	}
	Database DatabaseConfig
}

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
}

func init() {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Darasa")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("serverHost", "localhost")
	v.SetDefault("databaseEngine", "postgres")
	v.SetDefault("databaseName", "darasa")
	v.SetDefault("databaseHost", "localhost")
	v.SetDefault("databasePort", "5432")
	v.SetDefault("databaseDisableTLS", true)

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	Conf = &Config{
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		Env:              env,
		AppName:          v.GetString("appName"),
		Build:            v.GetString("build"),
		defaultFromEmail: v.GetString("defaultFromEmail"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),
	}
	Conf.Server.Host = v.GetString("serverHost")
	Conf.Database = DatabaseConfig{
		Engine:        v.GetString("databaseEngine"),
		Name:          v.GetString("databaseName"),
		User:          v.GetString("databaseUser"),
		Password:      v.GetString("databasePassword"),
		AdminUser:     v.GetString("databaseAdminUser"),
		AdminPassword: v.GetString("databaseAdminPassword"),
		Host:          v.GetString("databaseHost"),
		Port:          v.GetString("databasePort"),
		DisableTLS:    v.GetBool("databaseDisableTLS"),
	}
}
