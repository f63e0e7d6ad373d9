package internal

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
)

type Config struct {
	EchoToSender     bool          `env:"ECHO_TO_SENDER,default=true"`
	DeliveryTimeout  time.Duration `env:"DELIVERY_TIMEOUT,default=5s"`
	MaxBodyLength    int           `env:"MAX_BODY_LENGTH,default=4096"`
	AnnouncePresence bool          `env:"ANNOUNCE_PRESENCE,default=false"`
	CensoredWords    []string      `env:"CENSORED_WORDS"`
	MaskCharacter    string        `env:"MASK_CHARACTER,default=*"`
	LogLevel         string        `env:"LOG_LEVEL,default=INFO"`
}

func Load() (Config, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	return config, nil
}

// MaskRune converts the configured mask string to a single rune.
func MaskRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"MASK_CHARACTER must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
