package config

import "fmt"

type ServerConfig struct {
	Host    string `mapstructure:"host" validate:"required"`
	Port    int    `mapstructure:"port" validate:"gte=1,lte=65535"`
	Mode    string `mapstructure:"mode" validate:"oneof=debug release test"`
	BaseURL string `mapstructure:"base_url"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host" validate:"required"`
	Port            int    `mapstructure:"port" validate:"gte=1,lte=65535"`
	Username        string `mapstructure:"username" validate:"required"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database" validate:"required"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type EmailConfig struct {
	SMTPHost    string `mapstructure:"smtp_host"`
	SMTPPort    int    `mapstructure:"smtp_port"`
	SMTPUser    string `mapstructure:"smtp_user"`
	SMTPPass    string `mapstructure:"smtp_password"`
	FromAddress string `mapstructure:"from_address" validate:"required,email"`
	FromName    string `mapstructure:"from_name"`
	BaseURL     string `mapstructure:"base_url"`
}

type StripeConfig struct {
	APIKey        string `mapstructure:"api_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

// BillingConfig carries the retry and win-back timetables as plain data so
// deployments and tests can override the schedules without code changes.
type BillingConfig struct {
	// RetryOffsetDays are day offsets from failure detection, one per retry attempt.
	RetryOffsetDays []int `mapstructure:"retry_offset_days" validate:"min=1,dive,gt=0"`
	// GracePeriodDays is the window after a failed payment during which
	// workspace features stay enabled.
	GracePeriodDays int `mapstructure:"grace_period_days" validate:"gt=0"`
	// SuspensionWinbackOffsetDays are day offsets post-suspension for the
	// win-back email sequence.
	SuspensionWinbackOffsetDays []int `mapstructure:"suspension_winback_offset_days" validate:"min=1,dive,gt=0"`
	// CancellationWinbackOffsetDays are day offsets post-cancellation for the
	// win-back email sequence.
	CancellationWinbackOffsetDays []int `mapstructure:"cancellation_winback_offset_days" validate:"min=1,dive,gt=0"`
	// Holidays are fixed calendar dates in "MM-DD" form, matched year-agnostically.
	Holidays []string `mapstructure:"holidays"`
}

type SchedulerConfig struct {
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds" validate:"gt=0"`
	BatchSize           int `mapstructure:"batch_size" validate:"gt=0"`
}
