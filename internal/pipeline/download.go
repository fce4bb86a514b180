package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// download fetches every source video into the job's input dir. Any
// failure is fatal to the job; inputs are not retried.
func (j *job) download(ctx context.Context) error {
	fetch := j.p.Fetch
	if fetch == nil {
		fetch = httpDownload
	}
	for _, v := range j.req.SourceVideos {
		dest := filepath.Join(j.inputDir, filepath.Base(v.Filename))
		j.p.Log.Debug("[%s] downloading %s", j.req.ProductionID, v.Filename)
		if err := fetch(ctx, v.URL, dest); err != nil {
			return fmt.Errorf("download %s: %w", v.Filename, err)
		}
	}
	return nil
}

func httpDownload(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, resp.Body)
	return err
}
