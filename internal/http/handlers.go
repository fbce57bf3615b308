package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/config"
	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/domain"
	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/repository"
	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/service"
)

func Register(app *fiber.App, svcs *service.Services, flagStore *config.FlagStore) {
	g := app.Group("/")

	g.Get("assets/:asset_id/readings", func(c *fiber.Ctx) error {
		consumptionType := c.Query("consumption_type")
		if consumptionType == "" {
			return c.Status(400).JSON(fiber.Map{"error": "consumption_type is required"})
		}
		start, err := queryDate(c, "start_date")
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		end, err := queryDate(c, "end_date")
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}

		result, err := svcs.Anomaly.ProcessReadings(
			c.Params("asset_id"), consumptionType, start, end, c.QueryBool("detect_only"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		svcs.NotifyCounterResets(c.Params("asset_id"), consumptionType, result.Anomalies)
		return c.JSON(result)
	})

	g.Post("metrics/process", func(c *fiber.Ctx) error {
		var rows []domain.MetricRow
		if err := c.BodyParser(&rows); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(svcs.Metrics.ProcessMetricsData(rows, c.QueryBool("detect_only")))
	})

	g.Get("anomalies", func(c *fiber.Ctx) error {
		start, err := queryDate(c, "start_date")
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		end, err := queryDate(c, "end_date")
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		items, err := svcs.Store.GetAnomalies(repository.AnomalyFilter{
			AssetID:         c.Query("asset_id"),
			ConsumptionType: c.Query("consumption_type"),
			StartDate:       start,
			EndDate:         end,
		})
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if items == nil {
			items = []domain.Anomaly{}
		}
		return c.JSON(items)
	})

	g.Post("anomalies/reclassify", func(c *fiber.Ctx) error {
		var req struct {
			AssetID         string `json:"asset_id"`
			ConsumptionType string `json:"consumption_type"`
			Date            string `json:"date"`
			Type            string `json:"type"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		date, err := parseDay(req.Date)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}

		candidates, err := svcs.Store.GetAnomalies(repository.AnomalyFilter{
			AssetID:         req.AssetID,
			ConsumptionType: req.ConsumptionType,
			StartDate:       &date,
			EndDate:         &date,
		})
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if len(candidates) == 0 {
			return c.Status(404).JSON(fiber.Map{"error": "anomaly not found"})
		}

		updated, err := svcs.Anomaly.Detector().Reclassify(candidates[0], domain.AnomalyType(req.Type))
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(updated)
	})

	g.Get("config/feature-flags", func(c *fiber.Ctx) error {
		return c.JSON(svcs.Flags.Current())
	})

	g.Put("config/feature-flags", func(c *fiber.Ctx) error {
		if flagStore == nil {
			return c.Status(500).JSON(fiber.Map{"error": "feature flag store not configured"})
		}
		var flags config.FeatureFlags
		if err := c.BodyParser(&flags); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		if err := flagStore.Save(flags); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(flags)
	})

	g.Post("reports/consumption", func(c *fiber.Ctx) error {
		var req struct {
			AssetID         string `json:"asset_id"`
			ConsumptionType string `json:"consumption_type"`
			StartDate       string `json:"start_date"`
			EndDate         string `json:"end_date"`
			Upload          bool   `json:"upload"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		start, end, err := optionalRange(req.StartDate, req.EndDate)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}

		if req.Upload {
			url, err := svcs.Reports.ExportConsumptionReport(req.AssetID, req.ConsumptionType, start, end)
			if err != nil {
				return c.Status(500).JSON(fiber.Map{"error": err.Error()})
			}
			return c.JSON(fiber.Map{"url": url})
		}

		data, err := svcs.Reports.BuildConsumptionReport(req.AssetID, req.ConsumptionType, start, end)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		c.Set(fiber.HeaderContentType, "text/csv")
		return c.Send(data)
	})

	g.Get("reports", func(c *fiber.Ctx) error {
		keys, err := svcs.Reports.ListReports()
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if keys == nil {
			keys = []string{}
		}
		return c.JSON(fiber.Map{"reports": keys})
	})

	g.Delete("reports/*", func(c *fiber.Ctx) error {
		if err := svcs.Reports.DeleteReport("reports/" + c.Params("*")); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})
}

func queryDate(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	ts, err := parseDay(raw)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

func parseDay(raw string) (time.Time, error) {
	if ts, err := time.Parse("2006-01-02", raw); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func optionalRange(startRaw, endRaw string) (*time.Time, *time.Time, error) {
	var start, end *time.Time
	if startRaw != "" {
		ts, err := parseDay(startRaw)
		if err != nil {
			return nil, nil, err
		}
		start = &ts
	}
	if endRaw != "" {
		ts, err := parseDay(endRaw)
		if err != nil {
			return nil, nil, err
		}
		end = &ts
	}
	return start, end, nil
}
