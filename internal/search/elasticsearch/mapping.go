package elasticsearch

// DefaultIndexName is the default Elasticsearch index used for game documents.
const DefaultIndexName = "gamestore_games"

// buildIndexMapping returns the full JSON mapping for the games index.
// Title and description are analyzed for language-aware full-text search;
// category stays a keyword so exact filters and terms aggregations work.
func buildIndexMapping() string {
	return `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0
  },
  "mappings": {
    "properties": {
      "id":          { "type": "keyword" },
      "title":       { "type": "text", "analyzer": "english", "fields": { "keyword": { "type": "keyword", "ignore_above": 256 } } },
      "description": { "type": "text", "analyzer": "english" },
      "category":    { "type": "keyword" },
      "price":       { "type": "double" },
      "sales_count": { "type": "integer" },
      "created_at":  { "type": "date" }
    }
  }
}`
}
