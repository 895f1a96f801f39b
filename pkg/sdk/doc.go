// Package lognlook embeds the lognlook log pipeline in a Go program without
// running the HTTP server.
//
// Every stored log line is enriched by a chat model with a short comment and
// a category keyword from the project's vocabulary; the comment is embedded
// so lines can be found by meaning.
//
//	client, _ := lognlook.New(ctx,
//	    lognlook.WithRedis("localhost:6379", ""),
//	    lognlook.WithEmbedder(emb),
//	    lognlook.WithChatModel(chat),
//	)
//	defer client.Close()
//
//	p, _ := client.Projects().Create(ctx, "shop", []string{"Database", "Network"}, "en")
//	_, _ = client.Logs(p.ID).Ingest(ctx, "2024-05-01 12:00:00 ERROR pool exhausted", nil)
//	hits, _ := client.Search(p.ID).Hybrid(ctx, "connection pool", 5)
//
// WithMemory replaces Redis with an in-process store for tests and local
// experiments.
package lognlook
