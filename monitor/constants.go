package monitor

const (
	TOPIC_IMPORTED_ITEM = "topic.imported_item"

	DDOG_IMPORT_ITEM_COUNTER = "instag.import.item"

	GracefulRetryDelay = 3
)
