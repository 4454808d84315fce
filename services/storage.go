package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"
)

// StorageService archives uploaded documents to object storage. Archiving is
// fire-and-forget; a failed archive never fails the request that carried the
// upload.
type StorageService struct {
	appContext.DefaultService

	client     *minio.Client
	bucketName string
	endpoint   string
	accessKey  string
	secretKey  string
	useSSL     bool
	enabled    bool
}

const STORAGE_SVC = "storage_svc"

func (svc StorageService) Id() string {
	return STORAGE_SVC
}

func (svc *StorageService) Configure(ctx *appContext.Context) error {
	svc.endpoint = os.Getenv("MINIO_ENDPOINT")
	svc.accessKey = os.Getenv("MINIO_ACCESS_KEY")
	svc.secretKey = os.Getenv("MINIO_SECRET_KEY")
	svc.useSSL = os.Getenv("MINIO_USE_SSL") == "true"

	svc.bucketName = os.Getenv("MINIO_BUCKET_NAME")
	if svc.bucketName == "" {
		svc.bucketName = "rephrase-uploads"
	}

	svc.enabled = svc.endpoint != ""
	return svc.DefaultService.Configure(ctx)
}

func (svc *StorageService) Start() error {
	if !svc.enabled {
		log.Warn("MINIO_ENDPOINT not set, upload archiving disabled")
		return nil
	}

	client, err := minio.New(svc.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(svc.accessKey, svc.secretKey, ""),
		Secure: svc.useSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %v", err)
	}

	svc.client = client

	if err := svc.ensureBucket(); err != nil {
		return fmt.Errorf("failed to ensure bucket exists: %v", err)
	}

	log.Printf("Storage service started with endpoint: %s", svc.endpoint)
	return nil
}

func (svc *StorageService) ensureBucket() error {
	ctx := context.Background()

	exists, err := svc.client.BucketExists(ctx, svc.bucketName)
	if err != nil {
		return err
	}
	if !exists {
		return svc.client.MakeBucket(ctx, svc.bucketName, minio.MakeBucketOptions{})
	}
	return nil
}

// ArchiveUpload stores the raw upload under uploads/<user>/<ts>_<name>.
// Runs in its own goroutine with its own deadline.
func (svc *StorageService) ArchiveUpload(userID, filename, contentType string, data []byte) {
	if !svc.enabled {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		objectName := fmt.Sprintf("uploads/%s/%d_%s", userID, time.Now().UnixNano(), filename)

		_, err := svc.client.PutObject(ctx, svc.bucketName, objectName,
			bytes.NewReader(data), int64(len(data)),
			minio.PutObjectOptions{ContentType: contentType})
		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"user_id": userID,
				"object":  objectName,
			}).Warn("Failed to archive upload")
			return
		}

		log.WithField("object", objectName).Debug("Upload archived")
	}()
}
