package config

import (
	"fmt"
	"strings"

	"github.com/medialoom/bonusledger/internal/logger"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Bonus    BonusConfig    `mapstructure:"bonus"`
}

// ServerConfig 进程运行配置
type ServerConfig struct {
	Mode string `mapstructure:"mode"` // debug / release
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // 数据库驱动（sqlite/postgres）
	DSN    string             `mapstructure:"dsn"`    // 数据库连接串
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// ActivityBonusConfig 活动奖励配置项
type ActivityBonusConfig struct {
	Amount  float64 `mapstructure:"amount"`   // 奖励金额
	OneTime bool    `mapstructure:"one_time"` // 是否仅可领取一次
}

// BonusConfig 奖励金业务配置
type BonusConfig struct {
	ExpiryDays          int                            `mapstructure:"expiry_days"`          // 默认有效期（天）
	ReferralPercent     float64                        `mapstructure:"referral_percent"`     // 推荐奖励比例（百分比）
	MaxCheckoutPercent  float64                        `mapstructure:"max_checkout_percent"` // 下单可用奖励金占订单比例上限
	MinWithdrawAmount   float64                        `mapstructure:"min_withdraw_amount"`  // 最低提现金额
	DefaultRate         float64                        `mapstructure:"default_rate"`         // 无生效汇率记录时的兜底汇率
	FromCurrency        string                         `mapstructure:"from_currency"`        // 奖励金币种标识
	ToCurrency          string                         `mapstructure:"to_currency"`          // 结算币种
	RateCacheTTLSeconds int                            `mapstructure:"rate_cache_ttl_seconds"`
	WarningLeadDays     []int                          `mapstructure:"warning_lead_days"` // 过期提醒提前天数
	TaxRates            map[string]float64             `mapstructure:"tax_rates"`         // 税务身份 -> 税率
	Activities          map[string]ActivityBonusConfig `mapstructure:"activities"`        // 活动类型 -> 奖励配置
}

// Load 从 config.yml 加载配置
func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")   // 如果从 cmd/server 运行
	viper.AddConfigPath("./etc") // etc 文件夹

	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("log.dir", "")
	viper.SetDefault("log.filename", "bonusledger.log")
	viper.SetDefault("log.max_size_mb", 100)
	viper.SetDefault("log.max_backups", 7)
	viper.SetDefault("log.max_age_days", 30)
	viper.SetDefault("log.compress", true)
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.dsn", "./db/bonusledger.db")
	viper.SetDefault("database.pool.max_open_conns", 1)
	viper.SetDefault("database.pool.max_idle_conns", 1)
	viper.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	viper.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	viper.SetDefault("redis.enabled", true)
	viper.SetDefault("redis.host", "127.0.0.1")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.prefix", "bl")
	viper.SetDefault("queue.enabled", true)
	viper.SetDefault("queue.host", "127.0.0.1")
	viper.SetDefault("queue.port", 6379)
	viper.SetDefault("queue.password", "")
	viper.SetDefault("queue.db", 1)
	viper.SetDefault("queue.concurrency", 10)
	viper.SetDefault("queue.queues", map[string]int{
		"default":  10,
		"critical": 5,
	})
	viper.SetDefault("bonus.expiry_days", 365)
	viper.SetDefault("bonus.referral_percent", 5.0)
	viper.SetDefault("bonus.max_checkout_percent", 50.0)
	viper.SetDefault("bonus.min_withdraw_amount", 100.0)
	viper.SetDefault("bonus.default_rate", 1.0)
	viper.SetDefault("bonus.from_currency", "BNS")
	viper.SetDefault("bonus.to_currency", "CNY")
	viper.SetDefault("bonus.rate_cache_ttl_seconds", 60)
	viper.SetDefault("bonus.warning_lead_days", []int{30, 7, 1})
	viper.SetDefault("bonus.tax_rates", map[string]float64{
		"individual":    0.13,
		"self_employed": 0.06,
		"entrepreneur":  0.06,
		"company":       0.20,
	})
	viper.SetDefault("bonus.activities", map[string]ActivityBonusConfig{
		"first_purchase":    {Amount: 100, OneTime: true},
		"profile_completed": {Amount: 50, OneTime: true},
		"daily_streak":      {Amount: 10, OneTime: false},
	})

	// 环境变量支持（server.mode -> SERVER_MODE）
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}

	return &cfg
}
