package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr        string
	SocketAddr      string
	AllowedOrigins  []string
	JWTSecret       string
	PlayerCount     int
	StartingBalance int
	BoardPath       string
	DiceSeed        int64
	RedisURL        string
	DB              DB
	LogLevel        string
	LogFormat       string
}

type DB struct {
	Addr     string
	User     string
	Password string
	Name     string
}

func (d DB) Enabled() bool {
	return d.Addr != ""
}

// Load reads .env files (missing ones are skipped) and then the environment.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

func FromEnv() (Config, error) {
	cfg := Config{
		HTTPAddr:       getenv("HTTP_ADDR", ":4101"),
		SocketAddr:     getenv("SOCKET_ADDR", ":8000"),
		AllowedOrigins: splitList(getenv("ALLOWED_ORIGINS", "http://localhost:3000")),
		JWTSecret:      getenv("JWT_SECRET", "secret"),
		BoardPath:      os.Getenv("BOARD_PATH"),
		RedisURL:       os.Getenv("REDIS_URL"),
		DB: DB{
			Addr:     os.Getenv("DB_ADDR"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
		},
		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "text"),
	}

	var err error
	if cfg.PlayerCount, err = getint("PLAYER_COUNT", 4); err != nil {
		return Config{}, err
	}
	if cfg.StartingBalance, err = getint("STARTING_BALANCE", 1500); err != nil {
		return Config{}, err
	}
	seed, err := getint("DICE_SEED", 0)
	if err != nil {
		return Config{}, err
	}
	cfg.DiceSeed = int64(seed)
	return cfg, nil
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getint(k string, d int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return d, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s=%q: %w", k, v, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
