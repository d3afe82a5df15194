package archive

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// fakeS3 is a minimal path-style S3 endpoint covering the calls S3Archive makes.
type fakeS3 struct {
	mu      sync.Mutex
	bucket  string
	objects map[string][]byte
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	if parts[0] != f.bucket {
		return xmlError(http.StatusNotFound, "NoSuchBucket"), nil
	}
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}

	switch {
	case req.Method == http.MethodHead && key == "":
		return response(http.StatusOK, nil, nil), nil
	case req.Method == http.MethodGet && req.URL.Query().Get("list-type") == "2":
		return f.list(req.URL.Query().Get("prefix")), nil
	case req.Method == http.MethodPut:
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		if strings.Contains(req.Header.Get("Content-Encoding"), "aws-chunked") {
			if body, err = decodeAWSChunked(body); err != nil {
				return nil, err
			}
		}
		f.objects[key] = body
		return response(http.StatusOK, http.Header{"Etag": {`"etag"`}}, nil), nil
	case req.Method == http.MethodGet:
		data, ok := f.objects[key]
		if !ok {
			return xmlError(http.StatusNotFound, "NoSuchKey"), nil
		}
		return response(http.StatusOK, http.Header{"Content-Length": {strconv.Itoa(len(data))}}, data), nil
	}
	return response(http.StatusNotImplemented, nil, nil), nil
}

func (f *fakeS3) list(prefix string) *http.Response {
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><ListBucketResult><IsTruncated>false</IsTruncated>`)
	for _, k := range keys {
		fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size><LastModified>2024-01-01T00:00:00Z</LastModified></Contents>", k, len(f.objects[k]))
	}
	fmt.Fprintf(&b, "<KeyCount>%d</KeyCount></ListBucketResult>", len(keys))
	return response(http.StatusOK, http.Header{"Content-Type": {"application/xml"}}, []byte(b.String()))
}

func response(status int, header http.Header, body []byte) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		StatusCode:    status,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
	}
}

func xmlError(status int, code string) *http.Response {
	body := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>%s</Code><Message>%s</Message></Error>`, code, code)
	return response(status, http.Header{"Content-Type": {"application/xml"}}, []byte(body))
}

// decodeAWSChunked strips aws-chunked framing: "<hex size>[;ext]\r\n<data>\r\n" until a zero chunk.
func decodeAWSChunked(b []byte) ([]byte, error) {
	r := bufio.NewReader(bytes.NewReader(b))
	var out bytes.Buffer
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("reading chunk header: %w", err)
		}
		sizeHex, _, _ := strings.Cut(strings.TrimSpace(line), ";")
		size, err := strconv.ParseInt(sizeHex, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing chunk size %q: %w", sizeHex, err)
		}
		if size == 0 {
			return out.Bytes(), nil
		}
		if _, err := io.CopyN(&out, r, size); err != nil {
			return nil, fmt.Errorf("reading chunk: %w", err)
		}
		if _, err := r.ReadString('\n'); err != nil {
			return nil, fmt.Errorf("reading chunk terminator: %w", err)
		}
	}
}

func newTestS3Archive(t *testing.T) (*S3Archive, *fakeS3) {
	t.Helper()

	fake := &fakeS3{bucket: "rosters", objects: make(map[string][]byte)}
	client := s3.New(s3.Options{
		Region:                     "us-east-1",
		Credentials:                credentials.NewStaticCredentialsProvider("AKIA", "SECRET", ""),
		HTTPClient:                 &http.Client{Transport: fake},
		BaseEndpoint:               aws.String("https://s3.test.local"),
		UsePathStyle:               true,
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
		ResponseChecksumValidation: aws.ResponseChecksumValidationWhenRequired,
	})
	return NewS3ArchiveFromClient("test", client, "rosters", "backups/"), fake
}

func TestS3Archive_PutGet(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		a, fake := newTestS3Archive(t)

		data := "\"PLAYER\" \"Ronaldinho\"\n"
		if err := a.PutBackup("players.txt", 12, strings.NewReader(data), int64(len(data))); err != nil {
			t.Fatalf("PutBackup() error = %v", err)
		}
		if _, ok := fake.objects["backups/players.txt/00000000000000000012.bak"]; !ok {
			t.Errorf("object not stored under expected key, have %v", fake.objects)
		}

		var buf bytes.Buffer
		if err := a.GetBackup("players.txt", 12, &buf); err != nil {
			t.Fatalf("GetBackup() error = %v", err)
		}
		if buf.String() != data {
			t.Errorf("GetBackup() = %q, want %q", buf.String(), data)
		}
	})

	t.Run("size mismatch", func(t *testing.T) {
		a, _ := newTestS3Archive(t)

		if err := a.PutBackup("players.txt", 1, strings.NewReader("abc"), 99); err == nil {
			t.Error("PutBackup() expected size mismatch error")
		}
	})

	t.Run("missing backup", func(t *testing.T) {
		a, _ := newTestS3Archive(t)

		err := a.GetBackup("players.txt", 1, &bytes.Buffer{})
		if !errors.Is(err, ErrBackupNotFound) {
			t.Errorf("GetBackup() error = %v, want ErrBackupNotFound", err)
		}
	})
}

func TestS3Archive_ListBackups(t *testing.T) {
	a, fake := newTestS3Archive(t)

	for _, v := range []int64{3, 1, 2} {
		if err := a.PutBackup("players.txt", v, strings.NewReader("x"), 1); err != nil {
			t.Fatalf("PutBackup() error = %v", err)
		}
	}
	fake.objects["backups/players.txt/readme"] = []byte("stray")
	fake.objects["backups/other.txt/00000000000000000009.bak"] = []byte("x")

	got, err := a.ListBackups("players.txt")
	if err != nil {
		t.Fatalf("ListBackups() error = %v", err)
	}
	want := []int64{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("ListBackups() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ListBackups()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestS3Archive_ValidateSetup(t *testing.T) {
	a, fake := newTestS3Archive(t)

	if err := a.ValidateSetup(); err != nil {
		t.Errorf("ValidateSetup() error = %v", err)
	}

	fake.bucket = "elsewhere"
	if err := a.ValidateSetup(); err == nil {
		t.Error("ValidateSetup() expected error for missing bucket")
	}
}
