package app_setting

import (
	"io/ioutil"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	DefaultItemLimit = 50
	MinItemLimit     = 1
	MaxItemLimit     = 100

	DefaultCacheLifetimeSecond  = 3600
	DefaultPageDelayMillisecond = 1000
	MinPageDelayMillisecond     = 200
	DefaultChunkSize            = 5
	DefaultHashtagMaxPages      = 25

	MediaStorageLocal = "local"
	MediaStorageS3    = "s3"
)

// This is the setting of the importer. Every value can be overridden by the
// env variable of the same name, except USERNAME and PASSWORD which are read
// from INSTAG_USERNAME and INSTAG_PASSWORD.
type InstagAppSetting struct {
	// Credentials of the account used to read feeds.
	USERNAME string `yaml:"USERNAME"`
	PASSWORD string `yaml:"PASSWORD"`
	// Base url of the feed gateway.
	FEED_GATEWAY_URL string `yaml:"FEED_GATEWAY_URL"`
	// Directory of the file page cache, used when redis is not configured.
	CACHE_DIR string `yaml:"CACHE_DIR"`
	// How long fetched post lists are reused.
	CACHE_LIFETIME_SECOND int64 `yaml:"CACHE_LIFETIME_SECOND"`
	// Items processed per batch, 1 to 100.
	ITEM_LIMIT int `yaml:"ITEM_LIMIT"`
	// Items processed per batch step, 1 to 5.
	CHUNK_SIZE int `yaml:"CHUNK_SIZE"`
	// Minimum wait between two page fetches.
	PAGE_DELAY_MILLISECOND int64 `yaml:"PAGE_DELAY_MILLISECOND"`
	// Default page limit of hashtag imports.
	HASHTAG_MAX_PAGES int `yaml:"HASHTAG_MAX_PAGES"`
	// "local" or "s3"
	MEDIA_STORAGE string `yaml:"MEDIA_STORAGE"`
	// Root of the local media store.
	MEDIA_DIR string `yaml:"MEDIA_DIR"`
	S3_BUCKET string `yaml:"S3_BUCKET"`
	S3_REGION string `yaml:"S3_REGION"`
	// Prefix of public media urls, e.g. a CDN domain.
	S3_PUBLIC_URL_PREFIX string `yaml:"S3_PUBLIC_URL_PREFIX"`
	// Address of the datadog agent.
	DOGSTATSD_ADDR string `yaml:"DOGSTATSD_ADDR"`
}

func DefaultInstagAppSetting() InstagAppSetting {
	return InstagAppSetting{
		CACHE_LIFETIME_SECOND:  DefaultCacheLifetimeSecond,
		ITEM_LIMIT:             DefaultItemLimit,
		CHUNK_SIZE:             DefaultChunkSize,
		PAGE_DELAY_MILLISECOND: DefaultPageDelayMillisecond,
		HASHTAG_MAX_PAGES:      DefaultHashtagMaxPages,
		MEDIA_STORAGE:          MediaStorageLocal,
		MEDIA_DIR:              "media",
	}
}

// ParseInstagAppSetting reads the yaml file at path on top of the defaults,
// then applies env overrides. An empty path only uses defaults and env.
func ParseInstagAppSetting(path string) (InstagAppSetting, error) {
	c := DefaultInstagAppSetting()
	if path != "" {
		yamlFile, err := ioutil.ReadFile(path)
		if err != nil {
			return c, errors.Wrap(err, "fail to read setting file")
		}
		if err = yaml.Unmarshal(yamlFile, &c); err != nil {
			return c, errors.Wrap(err, "fail to parse setting file")
		}
	}
	if err := c.ApplyEnv(os.LookupEnv); err != nil {
		return c, err
	}
	return c, nil
}

// ApplyEnv overrides values with the env variables lookup finds.
func (c *InstagAppSetting) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"INSTAG_USERNAME":      &c.USERNAME,
		"INSTAG_PASSWORD":      &c.PASSWORD,
		"FEED_GATEWAY_URL":     &c.FEED_GATEWAY_URL,
		"CACHE_DIR":            &c.CACHE_DIR,
		"MEDIA_STORAGE":        &c.MEDIA_STORAGE,
		"MEDIA_DIR":            &c.MEDIA_DIR,
		"S3_BUCKET":            &c.S3_BUCKET,
		"S3_REGION":            &c.S3_REGION,
		"S3_PUBLIC_URL_PREFIX": &c.S3_PUBLIC_URL_PREFIX,
		"DOGSTATSD_ADDR":       &c.DOGSTATSD_ADDR,
	}
	for name, field := range strs {
		if v, ok := lookup(name); ok {
			*field = v
		}
	}

	ints := map[string]*int{
		"ITEM_LIMIT":        &c.ITEM_LIMIT,
		"CHUNK_SIZE":        &c.CHUNK_SIZE,
		"HASHTAG_MAX_PAGES": &c.HASHTAG_MAX_PAGES,
	}
	for name, field := range ints {
		if v, ok := lookup(name); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return errors.Wrapf(err, "invalid %s", name)
			}
			*field = n
		}
	}

	int64s := map[string]*int64{
		"CACHE_LIFETIME_SECOND":  &c.CACHE_LIFETIME_SECOND,
		"PAGE_DELAY_MILLISECOND": &c.PAGE_DELAY_MILLISECOND,
	}
	for name, field := range int64s {
		if v, ok := lookup(name); ok {
			n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return errors.Wrapf(err, "invalid %s", name)
			}
			*field = n
		}
	}
	return nil
}

// Validate checks the settings an import cannot run without.
func (c InstagAppSetting) Validate() error {
	missing := []string{}
	if c.USERNAME == "" {
		missing = append(missing, "USERNAME")
	}
	if c.PASSWORD == "" {
		missing = append(missing, "PASSWORD")
	}
	if c.CACHE_DIR == "" {
		missing = append(missing, "CACHE_DIR")
	}
	if c.CACHE_LIFETIME_SECOND <= 0 {
		missing = append(missing, "CACHE_LIFETIME_SECOND")
	}
	if len(missing) > 0 {
		return errors.Errorf("missing settings: %s", strings.Join(missing, ", "))
	}
	if c.FEED_GATEWAY_URL == "" {
		return errors.New("missing settings: FEED_GATEWAY_URL")
	}
	switch c.MEDIA_STORAGE {
	case MediaStorageLocal:
		if c.MEDIA_DIR == "" {
			return errors.New("MEDIA_DIR is required for local media storage")
		}
	case MediaStorageS3:
		if c.S3_BUCKET == "" {
			return errors.New("S3_BUCKET is required for s3 media storage")
		}
	default:
		return errors.Errorf("unknown MEDIA_STORAGE %q", c.MEDIA_STORAGE)
	}
	return nil
}

// ItemLimit is ITEM_LIMIT clamped to 1..100, 50 when unset.
func (c InstagAppSetting) ItemLimit() int {
	return ClampItemLimit(c.ITEM_LIMIT)
}

func ClampItemLimit(limit int) int {
	if limit == 0 {
		return DefaultItemLimit
	}
	if limit < MinItemLimit {
		return MinItemLimit
	}
	if limit > MaxItemLimit {
		return MaxItemLimit
	}
	return limit
}

func (c InstagAppSetting) CacheLifetime() time.Duration {
	if c.CACHE_LIFETIME_SECOND <= 0 {
		return DefaultCacheLifetimeSecond * time.Second
	}
	return time.Duration(c.CACHE_LIFETIME_SECOND) * time.Second
}

// PageDelay is the pause between page fetches, never below
// MinPageDelayMillisecond.
func (c InstagAppSetting) PageDelay() time.Duration {
	if c.PAGE_DELAY_MILLISECOND < MinPageDelayMillisecond {
		return MinPageDelayMillisecond * time.Millisecond
	}
	return time.Duration(c.PAGE_DELAY_MILLISECOND) * time.Millisecond
}
