// Package tablastic is a tabular search client for Elasticsearch.
//
// It turns a free-text query into a multi_match search, discovers an
// index's fields by flattening its mapping, and projects the nested,
// heterogeneously-shaped hits into a flat table with stable column
// ordering, ready for sorting, display, and export.
//
//	client, err := tablastic.New(
//		tablastic.WithAddresses("http://localhost:9200"),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fields, err := client.FieldNames(ctx, "logs")
//	table, err := client.Search(ctx, []string{"logs"}, "error", fields[:3])
//	_ = table.SortBy("ts", true)
//	_ = client.ExportExcel(table, "results.xlsx")
//
// The pipeline is synchronous and silent: one engine request per call,
// errors returned to the caller, no retries and no logging.
package tablastic
