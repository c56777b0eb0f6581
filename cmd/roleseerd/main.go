// Command roleseerd serves role lookups over HTTP, tracking a role document
// on a local file, HTTP endpoint, git repository, GCS or S3 object.
package main

import (
	"context"
	"flag"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"

	"github.com/highlight-eng/roleseer"
	"github.com/highlight-eng/roleseer/metrics"
	"github.com/highlight-eng/roleseer/server"
	"github.com/highlight-eng/roleseer/source"
)

var sourceType = flag.String("source_type", "file", "role document source: file, http, git, gcs or s3")

var path = flag.String("path", roleseer.DefaultRoleFile, "path to the role document (file, git)")

var URL = flag.String("url", "", "url of the role document (http) or the repository (git)")

var branch = flag.String("branch", "", "git branch to track")

var bucket = flag.String("bucket", "", "bucket name (gcs, s3)")

var object = flag.String("object", "", "object name or key within the bucket (gcs, s3)")

var sourceAPIKey = flag.String("source_api_key", "", "X-API-Key header sent to the http source")

var awsRegion = flag.String("aws_region", "", "AWS region of the s3 bucket")

var awsAccessKey = flag.String("aws_access_key", "", "static AWS access key (default: ambient credentials)")

var awsSecretKey = flag.String("aws_secret_key", "", "static AWS secret key")

var listen = flag.String("listen", ":8080", "address to serve role lookups on")

var authKey = flag.String("auth_key", "", "require this X-API-KEY on every request")

var metricsListen = flag.String("metrics_listen", "", "address to serve prometheus metrics on")

var reloadSeconds = flag.Int("reload_every", 10, "role document reload interval in seconds")

var logLevel = flag.String("log_level", "info", "logrus log level")

func main() {
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.WithError(err).Fatal("invalid log level")
	}
	logrus.SetLevel(level)

	ctx := context.Background()
	src, err := newSource(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("error creating source")
	}

	sched := roleseer.NewTickerScheduler(ctx)
	defer sched.Stop()

	seer := roleseer.NewSeerFromSource(src,
		roleseer.WithReloadInterval(time.Duration(*reloadSeconds)*time.Second),
		roleseer.WithScheduler(sched),
		roleseer.WithContext(ctx),
	)

	if *metricsListen != "" {
		metrics.InitMetricServer(*metricsListen)
	}

	srv := server.New(seer)
	srv.AuthKey = *authKey
	srv.Start(*listen)
}

func newSource(ctx context.Context) (source.Source, error) {
	switch *sourceType {
	case "file":
		if *path == "" {
			logrus.Fatal("path is required")
		}
		return source.NewFileSource(*path)
	case "http":
		if *URL == "" {
			logrus.Fatal("url is required")
		}
		src, err := source.NewWebSource(*URL)
		if err != nil {
			return nil, err
		}
		src.APIKey = *sourceAPIKey
		return src, nil
	case "git":
		if *URL == "" {
			logrus.Fatal("url is required")
		}
		if *path == "" {
			logrus.Fatal("path is required")
		}
		src, err := source.NewGitSource(*URL, *path)
		if err != nil {
			return nil, err
		}
		src.Branch = *branch
		return src, nil
	case "gcs":
		if *bucket == "" || *object == "" {
			logrus.Fatal("bucket and object are required")
		}
		return source.NewGCSSource(*bucket, *object), nil
	case "s3":
		if *bucket == "" || *object == "" {
			logrus.Fatal("bucket and object are required")
		}
		src := source.NewS3Source(*bucket, *object)
		if *awsAccessKey != "" {
			cfg, err := awsconfig.LoadDefaultConfig(ctx,
				awsconfig.WithRegion(*awsRegion),
				awsconfig.WithCredentialsProvider(
					credentials.NewStaticCredentialsProvider(*awsAccessKey, *awsSecretKey, "")),
			)
			if err != nil {
				return nil, err
			}
			src.Client = s3.NewFromConfig(cfg)
		}
		return src, nil
	default:
		logrus.Fatalf("unknown source type %q", *sourceType)
		return nil, nil
	}
}
