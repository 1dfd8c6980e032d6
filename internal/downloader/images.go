package downloader

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/law-makers/listings/internal/snapshot"
	"github.com/law-makers/listings/pkg/models"
)

// Jobs lists the image downloads for every record in doc, laid out as
// dir/communities/<id>/ and dir/homes/<community>/<home>/. Each URL is
// fetched once per record directory; numbering keeps gallery order.
func Jobs(doc *models.Document, dir string) []Job {
	var jobs []Job

	ids := make([]string, 0, len(doc.Communities))
	for id := range doc.Communities {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		target := filepath.Join(dir, "communities", safe(id))
		jobs = append(jobs, recordJobs(target, doc.Communities[id].Images)...)
	}

	ids = ids[:0]
	for id := range doc.Homes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		target := filepath.Join(dir, "homes")
		for _, part := range strings.Split(id, "/") {
			target = filepath.Join(target, safe(part))
		}
		jobs = append(jobs, recordJobs(target, doc.Homes[id].Images)...)
	}

	return jobs
}

func recordJobs(target string, images []string) []Job {
	var jobs []Job
	seen := make(map[string]bool, len(images))
	for _, u := range images {
		if u == "" || seen[u] || !strings.HasPrefix(u, "http") {
			continue
		}
		seen[u] = true
		name := fmt.Sprintf("%02d-%s", len(jobs)+1, FileName(u))
		jobs = append(jobs, Job{URL: u, Path: filepath.Join(target, name)})
	}
	return jobs
}

func safe(id string) string {
	return strings.TrimSuffix(snapshot.FileName(id), ".html")
}
