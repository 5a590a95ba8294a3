package verify

// TroubleshootingHints are attached to a run whose order produced no documents.
var TroubleshootingHints = []string{
	"check shop-service logs: docker compose logs shop-service | tail -100",
	"look for 'TemplatesService payload preview' to see what was sent",
	"check templates-service logs: docker compose logs templates-service | tail -100",
	"look for 'Missing variables' or generation errors",
}

// ManualCheckHints are attached to successful runs.
var ManualCheckHints = []string{
	"download the PDF and check that all order items are listed",
	"verify item details (SKU, quantity, price) match the order",
	"to see the payload sent to the templates service: docker compose logs shop-service | grep 'TemplatesService payload preview'",
}
