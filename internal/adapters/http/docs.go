package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/barrierfree/internal/adapters/wsmap"
	"github.com/samirrijal/barrierfree/internal/core/domain"
)

const docsPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Barrier Free API</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
  <style>body{margin:0;font-family:sans-serif}nav{padding:.75rem 1.5rem;background:#1f6f43;color:#fff}nav a{color:#fff}</style>
</head>
<body>
  <nav>REST and GraphQL below. Live maps use <code>/ws/map</code>: <a href="/docs/ws">message reference</a>.</nav>
  <div id="rest"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>SwaggerUIBundle({url: '/docs/openapi.yaml', dom_id: '#rest'});</script>
</body>
</html>`

// wsMessage documents one browser → server message.
type wsMessage struct {
	Type        string   `json:"type"`
	Fields      []string `json:"fields,omitempty"`
	Description string   `json:"description"`
}

// wsProtocol describes /ws/map for client authors.
type wsProtocol struct {
	Path             string                   `json:"path"`
	ClientMessages   []wsMessage              `json:"client_messages"`
	ServerMessages   []string                 `json:"server_messages"`
	InteractionKinds []domain.InteractionKind `json:"interaction_kinds"`
	ErrorCodes       []string                 `json:"error_codes"`
}

func mapProtocol() wsProtocol {
	return wsProtocol{
		Path: "/ws/map",
		ClientMessages: []wsMessage{
			{msgInit, []string{"container", "center", "zoom", "size"}, "Open the map and load the markers of the first viewport"},
			{msgInteraction, []string{"kind", "center", "zoom", "bounds", "size", "programmatic"}, "Report a finished pan, zoom or resize; bursts are debounced"},
			{msgFocus, []string{"id", "position", "zoom"}, "Move to a marker and open its popup once markers reload"},
			{msgMove, []string{"center", "zoom"}, "Move the map without opening a popup"},
			{msgRoute, []string{"waypoints", "vehicle"}, "Replace the route overlay"},
			{msgRouteClear, nil, "Remove the route overlay"},
			{msgResize, []string{"size"}, "The container changed size"},
			{msgRefresh, nil, "Reload the markers of the current viewport"},
			{msgSearch, []string{"query", "lang", "limit", "center", "select", "zoom"}, "Search places; with select, jump to the best match"},
		},
		ServerMessages: []string{
			wsmap.MsgView, wsmap.MsgPan, wsmap.MsgTiles,
			wsmap.MsgLayerAdd, wsmap.MsgLayerRemove,
			wsmap.MsgMarkersAdd, wsmap.MsgMarkersClear, wsmap.MsgPopupOpen,
			wsmap.MsgInvalidate, wsmap.MsgRemove,
			wsmap.MsgSearchResults, wsmap.MsgError,
		},
		InteractionKinds: domain.InteractionKinds,
		ErrorCodes: []string{
			codeUnknownMessage, codeNotInitialized, codeAlreadyInitialized,
			codeBadRequest, codeNotFound, codeUpstream, codeUnavailable, codeInternal,
		},
	}
}

// SetupDocs registers the docs page at /docs, the OpenAPI document at
// /docs/openapi.yaml and the websocket message reference at /docs/ws.
func SetupDocs(app *fiber.App, openAPI []byte) {
	app.Get("/docs", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(docsPage)
	})

	app.Get("/docs/openapi.yaml", func(c *fiber.Ctx) error {
		if len(openAPI) == 0 {
			return errNotFound(c, "no OpenAPI document embedded")
		}
		c.Set(fiber.HeaderContentType, "application/yaml")
		return c.Send(openAPI)
	})

	protocol := mapProtocol()
	app.Get("/docs/ws", func(c *fiber.Ctx) error {
		return c.JSON(protocol)
	})
}
