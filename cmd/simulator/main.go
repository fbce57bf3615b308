package main

import (
	"encoding/json"
	"math/rand"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/config"
)

type reading struct {
	AssetID         string    `json:"asset_id"`
	ConsumptionType string    `json:"consumption_type"`
	Date            time.Time `json:"date"`
	Consumption     float64   `json:"consumption"`
}

func main() {
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	opts := mqtt.NewClientOptions().AddBroker(config.MQTTBroker())
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("mqtt connect")
	}
	defer client.Disconnect(250)

	// Cumulative counter with a reset around the middle of the run, so the
	// pipeline has something to detect.
	counter := 1000.0
	day := time.Now().AddDate(0, 0, -100)
	for i := 0; i < 100; i++ {
		counter += 5 + rand.Float64()*10
		if i == 50 {
			counter = 10
		}
		r := reading{
			AssetID:         "asset-001",
			ConsumptionType: "electricity",
			Date:            day.AddDate(0, 0, i),
			Consumption:     counter,
		}
		payload, _ := json.Marshal(r)
		token := client.Publish(config.MQTTTopic(), 0, false, payload)
		token.Wait()
		time.Sleep(100 * time.Millisecond)
	}
	log.Info().Msg("simulation done")
}
