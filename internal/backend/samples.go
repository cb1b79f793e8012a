package backend

import (
	"context"
	"errors"
)

// SampleFile is one encoded face sample with its training filename.
type SampleFile struct {
	Filename string
	Data     []byte
}

// Register uploads every sample in one request and registers the student.
func (c *Client) Register(ctx context.Context, rollNo, name string, files []SampleFile) error {
	if len(files) == 0 {
		return errors.New("no samples to register")
	}
	parts := []part{formField("rollNo", rollNo), formField("name", name)}
	for _, f := range files {
		parts = append(parts, jpegFile("files", f.Filename, f.Data))
	}

	body, err := c.doMultipart(ctx, "register", "face/register", parts...)
	if err != nil {
		return err
	}
	c.logger.Info("student registered", "rollNo", rollNo, "samples", len(files), "response", string(body))
	return nil
}

// SaveSample uploads one training sample. The backend derives roll number and
// name from the filename.
func (c *Client) SaveSample(ctx context.Context, file SampleFile) error {
	_, err := c.doMultipart(ctx, "save sample", "face/save-sample", jpegFile("file", file.Filename, file.Data))
	return err
}

// Train asks the backend to retrain on the saved samples.
func (c *Client) Train(ctx context.Context) error {
	body, err := c.doPost(ctx, "train", c.resolveURL("face/train", nil))
	if err != nil {
		return err
	}
	c.logger.Info("training finished", "response", string(body))
	return nil
}
