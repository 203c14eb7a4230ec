package config

import (
	"os"
	"strconv"
)

type Config struct {
	Addr      string
	ModelPath string
	Threads   int
	Language  string
	Translate bool
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "0", "false", "no", "off", "False", "FALSE":
			return false
		default:
			return true
		}
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func Load() Config {
	return Config{
		Addr:      getenv("WHISPERGATE_ADDR", ":8080"),
		ModelPath: getenv("WHISPERGATE_MODEL_PATH", "./models/ggml-base.en.bin"),
		Threads:   getenvInt("WHISPERGATE_THREADS", 0),
		Language:  getenv("WHISPERGATE_LANGUAGE", "auto"),
		Translate: getenvBool("WHISPERGATE_TRANSLATE", false),
	}
}
