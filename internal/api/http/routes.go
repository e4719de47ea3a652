package httpapi

import (
	"errors"
	"fmt"
	"html"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/i474232898/flood-monitoring/internal/chart"
	"github.com/i474232898/flood-monitoring/internal/floodapi"
	"github.com/i474232898/flood-monitoring/internal/readings"
	"github.com/i474232898/flood-monitoring/internal/registry"
	"github.com/i474232898/flood-monitoring/internal/store"
)

var validate = validator.New()

// Handler bundles the pipeline pieces the HTTP routes need.
type Handler struct {
	service  *readings.Service
	registry *registry.Registry
	cache    *store.MemoryStore
	plotsDir string
	dataDir  string
}

func NewHandler(service *readings.Service, reg *registry.Registry, cache *store.MemoryStore, plotsDir, dataDir string) *Handler {
	return &Handler{
		service:  service,
		registry: reg,
		cache:    cache,
		plotsDir: plotsDir,
		dataDir:  dataDir,
	}
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, h *Handler) {
	app.Get("/", h.home)
	app.Get("/monitor", h.monitor)
	app.Get("/plots/:filename", h.servePlot)
	app.Get("/data/:filename", h.serveData)

	v1 := app.Group("/api/v1")
	v1.Get("/stations", h.listStations)
}

// monitorQuery holds query parameters for the monitor endpoint. Range
// checking of DaysBack against the configured lookback cap happens in the
// pipeline service.
type monitorQuery struct {
	StationID string `validate:"required,alphanum,max=64"`
	DaysBack  int    `validate:"min=1"`
}

func (h *Handler) home(c *fiber.Ctx) error {
	c.Type("html")
	return c.SendString(fmt.Sprintf(homePage, h.service.LookbackDaysLimit()))
}

func (h *Handler) monitor(c *fiber.Ctx) error {
	q := monitorQuery{
		StationID: c.Query("station_id"),
		DaysBack:  c.QueryInt("days_back", 1),
	}

	if err := validate.Struct(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := h.service.ValidateDaysBack(q.DaysBack); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	// A registry miss is advisory only; the registry may be stale.
	warning := ""
	if known, err := h.registry.Contains(q.StationID); err != nil {
		log.Printf("WARN: station registry unavailable, skipping validation: %v", err)
	} else if !known {
		warning = fmt.Sprintf("station %s is not in the local registry; it may be invalid or the registry may be stale", q.StationID)
	}

	series, ok := h.cache.Get(q.StationID, q.DaysBack)
	if !ok {
		var err error
		series, err = h.service.Collect(c.UserContext(), q.StationID, q.DaysBack)
		if err != nil {
			if errors.Is(err, floodapi.ErrNoReadings) {
				c.Type("html")
				return c.SendString(emptyPage(q.StationID, q.DaysBack, warning))
			}
			return fiber.NewError(fiber.StatusBadGateway, fmt.Sprintf("fetching readings: %v", err))
		}
		h.cache.Put(q.StationID, q.DaysBack, series)
	}

	// Short run ID so concurrent submissions in the same minute cannot
	// collide on artifact names.
	runID := strings.Split(uuid.NewString(), "-")[0]
	stamp := fmt.Sprintf("%s_%s", time.Now().Format("2006-01-02T15:04"), runID)

	csvPaths, err := readings.ExportCSV(series, filepath.Join(h.dataDir, "readings"), q.StationID, stamp)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, fmt.Sprintf("saving CSV files: %v", err))
	}

	plotName := fmt.Sprintf("station_%s_%s.png", q.StationID, stamp)
	if err := chart.Save(series, filepath.Join(h.plotsDir, plotName)); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, fmt.Sprintf("creating plot: %v", err))
	}

	c.Type("html")
	return c.SendString(resultsPage(q.StationID, warning, plotName, csvPaths))
}

func (h *Handler) servePlot(c *fiber.Ctx) error {
	return serveArtifact(c, h.plotsDir, "plot not found")
}

func (h *Handler) serveData(c *fiber.Ctx) error {
	return serveArtifact(c, filepath.Join(h.dataDir, "readings"), "data file not found")
}

// serveArtifact sends a generated file by name. The name is flattened with
// filepath.Base so path traversal cannot escape the artifact directory.
func serveArtifact(c *fiber.Ctx, dir, notFoundMsg string) error {
	name := filepath.Base(c.Params("filename"))
	path := filepath.Join(dir, name)

	if _, err := os.Stat(path); err != nil {
		return fiber.NewError(fiber.StatusNotFound, notFoundMsg)
	}
	return c.SendFile(path)
}

func (h *Handler) listStations(c *fiber.Ctx) error {
	ids, err := h.registry.IDs()
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to read station registry")
	}

	return c.JSON(fiber.Map{
		"count":    len(ids),
		"stations": ids,
	})
}

const homePage = `<html>
    <body>
        <h1>Flood Monitoring Data</h1>
        <form action="/monitor" method="get">
            <p>Station ID: <input type="text" name="station_id" required></p>
            <p>Days back: <input type="number" name="days_back" value="1" min="1" max="%d"></p>
            <input type="submit" value="Get Data">
        </form>
    </body>
</html>`

func emptyPage(stationID string, daysBack int, warning string) string {
	return fmt.Sprintf(`<html>
    <body>
        <h1>Station %s</h1>
        %s
        <p>No readings were returned in the last %d day(s). The station may be idle.</p>
        <p><a href="/">Back to form</a></p>
    </body>
</html>`, html.EscapeString(stationID), warningBlock(warning), daysBack)
}

func resultsPage(stationID, warning, plotName string, csvPaths []string) string {
	var links strings.Builder
	for _, p := range csvPaths {
		name := filepath.Base(p)
		fmt.Fprintf(&links, `<li><a href="/data/%s">%s</a></li>`, name, html.EscapeString(name))
	}

	return fmt.Sprintf(`<html>
    <body>
        <h1>Results for Station %s</h1>
        %s
        <h2>Plot</h2>
        <img src="/plots/%s" alt="Station readings plot" />
        <h2>Data Files</h2>
        <ul>%s</ul>
        <p><a href="/">Back to form</a></p>
    </body>
</html>`, html.EscapeString(stationID), warningBlock(warning), plotName, links.String())
}

func warningBlock(warning string) string {
	if warning == "" {
		return ""
	}
	return fmt.Sprintf(`<p><strong>Warning:</strong> %s</p>`, html.EscapeString(warning))
}
