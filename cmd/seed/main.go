package main

import (
	"context"
	"flag"
	"log"

	"paidvote/internal/app/bootstrap"
)

// Seed entrypoint: upserts award categories and contestants from a YAML file.
// Existing vote counts are never touched, so it is safe to rerun.
// With -open or -close it only toggles voting for one category.
func main() {
	path := flag.String("file", "", "catalog seed file (defaults to CATALOG_SEED_FILE)")
	open := flag.String("open", "", "category id to open for voting")
	closeID := flag.String("close", "", "category id to close for voting")
	flag.Parse()

	ctx := context.Background()
	switch {
	case *open != "" && *closeID != "":
		log.Fatal("use either -open or -close, not both")
	case *open != "":
		if err := bootstrap.SetCategoryActive(ctx, *open, true); err != nil {
			log.Fatalf("open category %s failed: %v", *open, err)
		}
		log.Printf("category %s is open for voting", *open)
		return
	case *closeID != "":
		if err := bootstrap.SetCategoryActive(ctx, *closeID, false); err != nil {
			log.Fatalf("close category %s failed: %v", *closeID, err)
		}
		log.Printf("category %s is closed for voting", *closeID)
		return
	}

	result, err := bootstrap.RunSeed(ctx, *path)
	if err != nil {
		log.Fatalf("catalog seed failed: %v", err)
	}
	log.Printf("catalog seeded: %d categories, %d contestants", result.Categories, result.Contestants)
}
