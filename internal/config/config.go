package config

import "github.com/spf13/viper"

func Load() error {
	// API Configuration
	viper.SetDefault("API_ADDR", ":8050")

	// Local data layout (readings CSV cache + anomaly records)
	viper.SetDefault("DATA_DIR", "data")
	viper.SetDefault("FEATURE_FLAGS_FILE", "config/feature_flags.json")

	// Database Configuration (optional Postgres-backed store)
	viper.SetDefault("DB_DSN", "")
	viper.SetDefault("MQTT_BROKER", "tcp://localhost:1883")
	viper.SetDefault("MQTT_TOPIC", "metrics/readings")

	// AWS Configuration
	viper.SetDefault("AWS_REGION", "us-east-1")
	viper.SetDefault("AWS_S3_BUCKET", "alfred-consumption-reports")
	viper.SetDefault("AWS_SNS_TOPIC_ARN", "")
	viper.SetDefault("USE_CLOUD_SERVICES", "false") // Toggle for local vs cloud

	viper.AutomaticEnv()
	return nil
}

func APIAddr() string          { return viper.GetString("API_ADDR") }
func DataDir() string          { return viper.GetString("DATA_DIR") }
func FeatureFlagsFile() string { return viper.GetString("FEATURE_FLAGS_FILE") }
func DBDSN() string            { return viper.GetString("DB_DSN") }
func MQTTBroker() string       { return viper.GetString("MQTT_BROKER") }
func MQTTTopic() string        { return viper.GetString("MQTT_TOPIC") }
func AWSRegion() string        { return viper.GetString("AWS_REGION") }
func S3Bucket() string         { return viper.GetString("AWS_S3_BUCKET") }
func SNSTopicArn() string      { return viper.GetString("AWS_SNS_TOPIC_ARN") }
func UseCloudServices() bool   { return viper.GetBool("USE_CLOUD_SERVICES") }
