package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

type apiError struct {
	code string
}

func (e *apiError) Error() string                 { return e.code }
func (e *apiError) ErrorCode() string             { return e.code }
func (e *apiError) ErrorMessage() string          { return e.code }
func (e *apiError) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

// fakeS3 keeps objects in memory and can be told to fail.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	buckets map[string]string

	getErr, putErr, deleteErr, headErr error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, buckets: map[string]string{}}
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[*in.Key]
	if !ok {
		return nil, &apiError{code: "NoSuchKey"}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[*in.Key] = data
	f.buckets[*in.Key] = *in.Bucket
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[*in.Key]; !ok {
		return nil, &apiError{code: "NotFound"}
	}
	return &s3.HeadObjectOutput{}, nil
}

func TestS3PutGet(t *testing.T) {
	fake := newFakeS3()
	store := NewS3(fake, "voice", "renders")
	ctx := context.Background()

	wav := []byte("RIFF....WAVEfmt ")
	path := GuidePath("abc")
	if err := Put(ctx, store, path, func(w io.Writer) error {
		_, err := w.Write(wav)
		return err
	}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if _, ok := fake.objects["renders/guides/abc.wav"]; !ok {
		t.Fatalf("objects = %v; want key renders/guides/abc.wav", fake.objects)
	}
	if got := fake.buckets["renders/guides/abc.wav"]; got != "voice" {
		t.Errorf("bucket = %q", got)
	}

	got, err := Get(ctx, store, path)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, wav) {
		t.Errorf("Get = %q, want %q", got, wav)
	}

	if loc := store.Location(path); loc != "s3://voice/renders/guides/abc.wav" {
		t.Errorf("Location = %q", loc)
	}
}

func TestS3ReadNotExist(t *testing.T) {
	store := NewS3(newFakeS3(), "voice", "")
	_, err := store.Read(context.Background(), "missing.wav")
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}

func TestS3ReadOtherError(t *testing.T) {
	fake := newFakeS3()
	timeout := errors.New("network timeout")
	fake.getErr = timeout
	store := NewS3(fake, "voice", "pfx")

	_, err := store.Read(context.Background(), "x")
	if errors.Is(err, os.ErrNotExist) {
		t.Fatal("generic errors must not look like a missing object")
	}
	if !errors.Is(err, timeout) {
		t.Fatalf("error = %v; want wrapped timeout", err)
	}
}

func TestS3Exists(t *testing.T) {
	fake := newFakeS3()
	store := NewS3(fake, "voice", "")
	ctx := context.Background()

	ok, err := store.Exists(ctx, "a.mid")
	if err != nil || ok {
		t.Fatalf("Exists(missing) = %v, %v", ok, err)
	}
	fake.objects["a.mid"] = []byte("MThd")
	ok, err = store.Exists(ctx, "a.mid")
	if err != nil || !ok {
		t.Fatalf("Exists(present) = %v, %v", ok, err)
	}

	fake.headErr = errors.New("network failure")
	if _, err := store.Exists(ctx, "a.mid"); !errors.Is(err, fake.headErr) {
		t.Errorf("Exists error = %v", err)
	}
}

func TestS3Delete(t *testing.T) {
	fake := newFakeS3()
	store := NewS3(fake, "voice", "")
	ctx := context.Background()

	if err := store.Delete(ctx, "ghost"); err != nil {
		t.Fatalf("Delete(missing): %v", err)
	}
	fake.objects["tmp"] = []byte("x")
	if err := store.Delete(ctx, "tmp"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := store.Exists(ctx, "tmp"); ok {
		t.Fatal("object survived delete")
	}

	fake.deleteErr = errors.New("access denied")
	if err := store.Delete(ctx, "tmp"); !errors.Is(err, fake.deleteErr) {
		t.Errorf("Delete error = %v", err)
	}
}

func TestS3UploadError(t *testing.T) {
	fake := newFakeS3()
	fake.putErr = errors.New("upload failed")
	store := NewS3(fake, "voice", "")

	w, err := store.Write(context.Background(), "obj")
	if err != nil {
		t.Fatal(err)
	}
	// The pipe may reject the write once the upload has failed.
	io.WriteString(w, "data")
	if err := w.Close(); !errors.Is(err, fake.putErr) {
		t.Fatalf("Close = %v; want upload error", err)
	}
}

func TestS3Overwrite(t *testing.T) {
	store := NewS3(newFakeS3(), "voice", "")
	ctx := context.Background()
	for _, s := range []string{"long content here", "short"} {
		if err := Put(ctx, store, "f", func(w io.Writer) error {
			_, err := io.WriteString(w, s)
			return err
		}); err != nil {
			t.Fatal(err)
		}
	}
	got, err := Get(ctx, store, "f")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "short" {
		t.Fatalf("got %q, want %q", got, "short")
	}
}

func TestIsS3NotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"NoSuchKey", &apiError{code: "NoSuchKey"}, true},
		{"NotFound", &apiError{code: "NotFound"}, true},
		{"other api error", &apiError{code: "AccessDenied"}, false},
		{"plain error", errors.New("timeout"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isS3NotFound(tt.err); got != tt.want {
				t.Fatalf("isS3NotFound(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestNewS3Client(t *testing.T) {
	c := NewS3Client(S3Config{Region: "eu-west-1", Endpoint: "http://localhost:9000", PathStyle: true, AccessKey: "k", SecretKey: "s"})
	opts := c.Options()
	if opts.Region != "eu-west-1" || !opts.UsePathStyle {
		t.Errorf("options = region %q path style %v", opts.Region, opts.UsePathStyle)
	}
	if opts.BaseEndpoint == nil || *opts.BaseEndpoint != "http://localhost:9000" {
		t.Errorf("endpoint = %v", opts.BaseEndpoint)
	}
	creds, err := opts.Credentials.Retrieve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if creds.AccessKeyID != "k" || creds.SecretAccessKey != "s" {
		t.Errorf("credentials = %+v", creds)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	fs, err := Open(dir, S3Config{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := fs.(*Local); !ok {
		t.Errorf("Open(dir) = %T", fs)
	}

	fs, err = Open("s3://bucket/a/b/", S3Config{AccessKey: "k", SecretKey: "s"})
	if err != nil {
		t.Fatal(err)
	}
	s3s, ok := fs.(*S3Store)
	if !ok {
		t.Fatalf("Open(s3://) = %T", fs)
	}
	if s3s.bucket != "bucket" || s3s.prefix != "a/b" {
		t.Errorf("bucket/prefix = %q/%q", s3s.bucket, s3s.prefix)
	}
	if !strings.HasPrefix(s3s.Location("x"), "s3://bucket/a/b/") {
		t.Errorf("Location = %q", s3s.Location("x"))
	}

	if _, err := Open("s3://", S3Config{}); err == nil {
		t.Error("expected error for missing bucket")
	}
}
