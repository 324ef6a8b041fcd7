package config

import (
	"context"
	"crm/pkg/mq"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
)

type Config struct {
	MetadataDB     MySQL         `json:"metadata_db"`
	CustomerDB     Elasticsearch `json:"customer_db"`
	Vendor         Vendor        `json:"vendor"`
	TextGen        TextGen       `json:"text_gen"`
	Delivery       Delivery      `json:"delivery"`
	NotificationMQ MQ            `json:"notification_mq"`
	CompanyName    string        `json:"company_name"`
}

type MySQL struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
}

func (mysql *MySQL) ToDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", mysql.Username, mysql.Password, mysql.Host, mysql.Port, mysql.Database)
}

type Elasticsearch struct {
	Addr     []string `json:"addr"`
	Username string   `json:"username"`
	Password string   `json:"password"`
	Index    string   `json:"index"`
}

type Vendor struct {
	SuccessRate        float64 `json:"success_rate"`
	ReceiptDelayMillis int     `json:"receipt_delay_millis"`
	DeliveredWeight    float64 `json:"delivered_weight"`
	OpenedWeight       float64 `json:"opened_weight"`
	ClickedWeight      float64 `json:"clicked_weight"`
}

type TextGen struct {
	APIKey         string `json:"api_key"`
	Model          string `json:"model"`
	BaseUrl        string `json:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

type Delivery struct {
	BatchSize int `json:"batch_size"`
}

type MQ struct {
	Producer mq.ProducerConfig `json:"producer"`
	Consumer mq.ConsumerConfig `json:"consumer"`
}

// Enabled reports whether the notification MQ is configured at all.
// With no brokers, notifications are written to the store directly.
func (m *MQ) Enabled() bool {
	return len(m.Producer.Brokers) > 0
}

func NewConfig() *Config {
	return &Config{
		MetadataDB: MySQL{
			Username: "",
			Password: "",
			Host:     "127.0.0.1",
			Port:     3306,
			Database: "crm_db",
		},
		CustomerDB: Elasticsearch{
			Addr:  []string{"http://127.0.0.1:9200"},
			Index: "customers",
		},
		Vendor: Vendor{
			SuccessRate:        0.95,
			ReceiptDelayMillis: 1000,
			DeliveredWeight:    0.6,
			OpenedWeight:       0.3,
			ClickedWeight:      0.1,
		},
		TextGen: TextGen{
			Model:          "gemini-1.5-flash",
			BaseUrl:        "https://generativelanguage.googleapis.com/v1beta",
			TimeoutSeconds: 30,
		},
		Delivery: Delivery{
			BatchSize: DefaultDeliveryBatchSize,
		},
		NotificationMQ: MQ{
			Producer: mq.ProducerConfig{
				Topics: map[uint32]string{
					uint32(mq.PayloadCreateNotification): "create_notification",
				},
			},
			Consumer: mq.ConsumerConfig{
				Topic:         "create_notification",
				ConsumerGroup: "crm_notifications",
			},
		},
		CompanyName: "Your Company Name",
	}
}

func (c *Config) Load(ctx context.Context, path string) error {
	if path == "" {
		log.Ctx(ctx).Warn().Msgf("empty config file")
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Ctx(ctx).Warn().Msgf("config file does not exist, file path: %s", path)
			return nil
		}
		return err
	}
	defer func(f *os.File) {
		err := f.Close()
		if err != nil {
			log.Ctx(ctx).Error().Msgf("config file close failed, file path: %s", path)
		}
	}(f)

	p := json.NewDecoder(f)
	if err := p.Decode(&c); err != nil {
		return err
	}

	return nil
}
