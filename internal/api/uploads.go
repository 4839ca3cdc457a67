package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/doyensec/safeurl"

	apperrors "github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/errors"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/httpclient"
)

// MaxUploadBytes caps a single uploaded or imported file.
const MaxUploadBytes = 10 << 20

// MaxUploadFiles caps a multiple-file upload.
const MaxUploadFiles = 10

// UploadFile is a file to send to /uploads.
type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f UploadFile) check() error {
	if len(f.Data) == 0 {
		return apperrors.InvalidInput(fmt.Sprintf("file %q is empty", f.Name))
	}
	if len(f.Data) > MaxUploadBytes {
		return apperrors.InvalidInput(fmt.Sprintf("file %q exceeds %d MB", f.Name, MaxUploadBytes>>20))
	}
	ct := f.contentType()
	if !strings.HasPrefix(ct, "image/") && !strings.HasPrefix(ct, "video/") && ct != "application/pdf" {
		return apperrors.InvalidInput(fmt.Sprintf("file %q has unsupported type %s", f.Name, ct))
	}
	return nil
}

// contentType sniffs the data; the declared type is used only when sniffing
// is inconclusive.
func (f UploadFile) contentType() string {
	sniffed := http.DetectContentType(f.Data)
	if sniffed == "application/octet-stream" && f.ContentType != "" {
		return f.ContentType
	}
	return sniffed
}

// UploadSingle sends one file as form field "file".
func (c *Client) UploadSingle(ctx context.Context, f UploadFile) (Image, error) {
	if err := f.check(); err != nil {
		return Image{}, err
	}
	req, err := multipartRequest("/uploads/single", "file", []UploadFile{f})
	if err != nil {
		return Image{}, err
	}
	data, err := call(ctx, c.sender, req)
	if err != nil {
		return Image{}, err
	}
	var img Image
	return img, jsonUnmarshal(pickItem(data, "file", "result"), &img, "upload")
}

// UploadMultiple sends files as repeated form field "files".
func (c *Client) UploadMultiple(ctx context.Context, files []UploadFile) ([]Image, error) {
	if len(files) == 0 {
		return nil, apperrors.InvalidInput("no files to upload")
	}
	if len(files) > MaxUploadFiles {
		return nil, apperrors.InvalidInput(fmt.Sprintf("at most %d files per upload", MaxUploadFiles))
	}
	for _, f := range files {
		if err := f.check(); err != nil {
			return nil, err
		}
	}
	req, err := multipartRequest("/uploads/multiple", "files", files)
	if err != nil {
		return nil, err
	}
	data, err := call(ctx, c.sender, req)
	if err != nil {
		return nil, err
	}
	var imgs []Image
	return imgs, jsonUnmarshal(pickItem(data, "files", "result"), &imgs, "upload")
}

func multipartRequest(p, field string, files []UploadFile) (httpclient.Request, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, path.Base(f.Name)))
		h.Set("Content-Type", f.contentType())
		part, err := w.CreatePart(h)
		if err != nil {
			return httpclient.Request{}, err
		}
		if _, err := part.Write(f.Data); err != nil {
			return httpclient.Request{}, err
		}
	}
	if err := w.Close(); err != nil {
		return httpclient.Request{}, err
	}
	return httpclient.NewRequest(http.MethodPost, p).WithBody(w.FormDataContentType(), buf.Bytes()), nil
}

// Importer downloads remote images for re-upload. Its HTTP client refuses
// private, loopback and link-local destinations, including after DNS
// resolution.
type Importer struct {
	client   *http.Client
	maxBytes int64
}

// NewImporter builds an Importer on a safeurl client limited to http(s) on
// ports 80 and 443.
func NewImporter(timeout time.Duration) *Importer {
	cfg := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()
	return &Importer{client: safeurl.Client(cfg).Client, maxBytes: MaxUploadBytes}
}

// Fetch downloads rawURL into an UploadFile.
func (i *Importer) Fetch(ctx context.Context, rawURL string) (UploadFile, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return UploadFile{}, apperrors.InvalidInput("url must be an absolute http(s) URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return UploadFile{}, apperrors.InvalidInput("invalid url")
	}
	resp, err := i.client.Do(req)
	if err != nil {
		return UploadFile{}, apperrors.InvalidInput("could not fetch url: " + err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return UploadFile{}, apperrors.InvalidInput(fmt.Sprintf("remote server answered %d", resp.StatusCode))
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, i.maxBytes+1))
	if err != nil {
		return UploadFile{}, apperrors.InvalidInput("could not read remote file")
	}
	if int64(len(data)) > i.maxBytes {
		return UploadFile{}, apperrors.InvalidInput(fmt.Sprintf("remote file exceeds %d MB", i.maxBytes>>20))
	}

	name := path.Base(u.Path)
	if name == "/" || name == "." {
		name = "import"
	}
	return UploadFile{Name: name, ContentType: resp.Header.Get("Content-Type"), Data: data}, nil
}

// UploadFromURL fetches rawURL through im and uploads it as a single file.
func (c *Client) UploadFromURL(ctx context.Context, im *Importer, rawURL string) (Image, error) {
	f, err := im.Fetch(ctx, rawURL)
	if err != nil {
		return Image{}, err
	}
	return c.UploadSingle(ctx, f)
}
