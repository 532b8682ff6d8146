package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// MessagingConfig holds the operator-editable notification templates and
// report presentation settings. Placeholders use {name} syntax.
type MessagingConfig struct {
	ConfirmationTemplate string `mapstructure:"confirmationTemplate"`
	CancellationTemplate string `mapstructure:"cancellationTemplate"`
	DoctorAssignTemplate string `mapstructure:"doctorAssignTemplate"`
	FallbackDoctorName   string `mapstructure:"fallbackDoctorName"`
	FallbackPetName      string `mapstructure:"fallbackPetName"`
	CurrencySymbol       string `mapstructure:"currencySymbol"`
	CountryDialCode      string `mapstructure:"countryDialCode"`
}

func DefaultMessagingConfig() MessagingConfig {
	return MessagingConfig{
		ConfirmationTemplate: "Hi {owner_name}! Your appointment for {pet_name} at {clinic_name} on {date} {time} with {doctor_name} is confirmed.",
		CancellationTemplate: "Hi {owner_name}, your appointment for {pet_name} at {clinic_name} on {date} {time} has been cancelled. Please contact the clinic to rebook.",
		DoctorAssignTemplate: "New appointment assigned: {pet_name} on {date} {time} at {clinic_name}.",
		FallbackDoctorName:   "Available Doctor",
		FallbackPetName:      "your pet",
		CurrencySymbol:       "PHP ",
		CountryDialCode:      "+63",
	}
}

type MessagingConfigHolder struct {
	current atomic.Value // holds MessagingConfig
}

// NewMessagingConfigHolder reads messaging.yml and keeps it hot-reloaded so
// template edits do not require a restart.
func NewMessagingConfigHolder() (*MessagingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("messaging")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/purrfectpaw/config")
	v.AddConfigPath("/etc/purrfectpaw")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PURRFECTPAW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultMessagingConfig()
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		v.SetDefault("messaging.confirmationTemplate", defaults.ConfirmationTemplate)
		v.SetDefault("messaging.cancellationTemplate", defaults.CancellationTemplate)
		v.SetDefault("messaging.doctorAssignTemplate", defaults.DoctorAssignTemplate)
		v.SetDefault("messaging.fallbackDoctorName", defaults.FallbackDoctorName)
		v.SetDefault("messaging.fallbackPetName", defaults.FallbackPetName)
		v.SetDefault("messaging.currencySymbol", defaults.CurrencySymbol)
		v.SetDefault("messaging.countryDialCode", defaults.CountryDialCode)
	}

	var cfg MessagingConfig
	if err := v.UnmarshalKey("messaging", &cfg); err != nil {
		return nil, err
	}
	if err := validateMessagingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &MessagingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated MessagingConfig
		if err := v.UnmarshalKey("messaging", &updated); err != nil {
			log.Printf("[messaging-config] reload failed: %v", err)
			return
		}
		if err := validateMessagingConfig(updated); err != nil {
			log.Printf("[messaging-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[messaging-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticMessagingConfigHolder wraps a fixed config without file
// watching, for tests and tools.
func NewStaticMessagingConfigHolder(cfg MessagingConfig) *MessagingConfigHolder {
	holder := &MessagingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *MessagingConfigHolder) Get() MessagingConfig {
	return h.current.Load().(MessagingConfig)
}

func validateMessagingConfig(cfg MessagingConfig) error {
	if strings.TrimSpace(cfg.ConfirmationTemplate) == "" {
		return errors.New("messaging.confirmationTemplate cannot be empty")
	}
	if strings.TrimSpace(cfg.CancellationTemplate) == "" {
		return errors.New("messaging.cancellationTemplate cannot be empty")
	}
	if strings.TrimSpace(cfg.CountryDialCode) == "" {
		return errors.New("messaging.countryDialCode cannot be empty")
	}
	return nil
}
