package main

import (
	"encoding/json"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/config"
	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/domain"
	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/repository"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	store, err := repository.NewFileStore(config.DataDir())
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}

	opts := mqtt.NewClientOptions().AddBroker(config.MQTTBroker())
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("mqtt connect")
	}
	defer client.Disconnect(250)

	handler := func(_ mqtt.Client, msg mqtt.Message) {
		var r struct {
			AssetID         string    `json:"asset_id"`
			ConsumptionType string    `json:"consumption_type"`
			Date            time.Time `json:"date"`
			Consumption     float64   `json:"consumption"`
		}
		if err := json.Unmarshal(msg.Payload(), &r); err != nil {
			log.Error().Err(err).Msg("bad reading payload")
			return
		}
		rd := domain.Reading{
			Date:            r.Date,
			Value:           r.Consumption,
			AssetID:         r.AssetID,
			ConsumptionType: r.ConsumptionType,
		}
		if err := store.AppendReading(rd); err != nil {
			log.Error().Err(err).Msg("ingest failed")
		}
	}

	if token := client.Subscribe(config.MQTTTopic(), 0, handler); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("subscribe failed")
	}

	log.Info().Str("topic", config.MQTTTopic()).Msg("ingestor running; Ctrl+C to stop")
	for {
		time.Sleep(10 * time.Second)
	}
}
