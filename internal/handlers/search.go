package handlers

import (
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/quickbite/marketplace/internal/service/search"
	"github.com/quickbite/marketplace/internal/util"
)

type SearchHandler struct {
	ES    *elasticsearch.Client
	Index string
}

func NewSearchHandler(es *elasticsearch.Client, index string) *SearchHandler {
	return &SearchHandler{ES: es, Index: index}
}

// Search finds vendors by keyword, optionally within a radius of the
// caller's location (lat, lng, radius in km).
func (h *SearchHandler) Search(c echo.Context) error {
	keyword := c.QueryParam("keyword")
	page := ParseIntDefault(c.QueryParam("page"), 1)
	size := ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	from, limit := util.Calculate(page, size)

	params := search.Params{
		Keyword: keyword,
		From:    from,
		Size:    limit,
	}

	latRaw, lonRaw, radRaw := c.QueryParam("lat"), c.QueryParam("lng"), c.QueryParam("radius")
	if latRaw != "" && lonRaw != "" && radRaw != "" {
		lat, err1 := strconv.ParseFloat(latRaw, 64)
		lon, err2 := strconv.ParseFloat(lonRaw, 64)
		radius, err3 := strconv.ParseFloat(radRaw, 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid lat/lng/radius")
		}
		params.Lat, params.Lon, params.RadiusKM = lat, lon, radius
	}

	total, vendors, err := search.Vendors(c.Request().Context(), h.ES, h.Index, params)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"vendors":      vendors,
		"vendor_count": total,
		"meta": map[string]any{
			"page": page,
			"size": limit,
		},
	})
}
