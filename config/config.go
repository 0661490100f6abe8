package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Configs struct {
	Env string

	Database    DatabaseConfigs
	ApiServer   ServerConfigs
	Redis       RedisConfigs
	Quest       QuestConfigs
	Idempotency IdempotencyConfigs
	Recovery    RecoveryConfigs
}

type DatabaseConfigs struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

func (d *DatabaseConfigs) ConnectionString() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
}

type ServerConfigs struct {
	Host string
	Port string
	Cert string
	Key  string
}

type RedisConfigs struct {
	Addr string
}

type QuestConfigs struct {
	// CreationCost is the number of creation points a requestor spends to
	// open a quest. It is refunded when an open quest is deleted.
	CreationCost uint64

	// CreatorReputationDivisor scales the reputation credited to the
	// requestor relative to the performer reward.
	CreatorReputationDivisor uint64
}

type IdempotencyConfigs struct {
	TTL time.Duration
}

type RecoveryConfigs struct {
	Interval  time.Duration
	LeaseTTL  time.Duration
	BatchSize int
}

// Load reads a TOML config file and applies environment overrides for
// credentials, so secrets never live in the file.
func Load(path string) (Configs, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Configs{}, err
		}
	}

	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}

	return cfg, nil
}

func Default() Configs {
	return Configs{
		Env: "local",
		Database: DatabaseConfigs{
			Host:     "localhost",
			Port:     "3306",
			Database: "peerquest",
			User:     "root",
		},
		ApiServer: ServerConfigs{
			Host: "0.0.0.0",
			Port: "8080",
		},
		Redis: RedisConfigs{Addr: "localhost:6379"},
		Quest: QuestConfigs{
			CreationCost:             1,
			CreatorReputationDivisor: 2,
		},
		Idempotency: IdempotencyConfigs{TTL: 10 * time.Minute},
		Recovery: RecoveryConfigs{
			Interval:  time.Minute,
			LeaseTTL:  time.Minute,
			BatchSize: 50,
		},
	}
}
