package main

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/timothycrosley/blox/internal/config"
	"github.com/timothycrosley/blox/internal/errors"
	"github.com/timothycrosley/blox/pkg/dom"
	"github.com/timothycrosley/blox/pkg/registry"
	"github.com/timothycrosley/blox/pkg/render"
	"github.com/timothycrosley/blox/pkg/templates"
)

// app holds the state shared by every command: persistent flags, the
// loaded configuration and the logger.
type app struct {
	configPath string
	logFormat  string
	verbose    bool

	cfg    *config.Config
	logger *slog.Logger
}

func (a *app) setup(cmd *cobra.Command) error {
	logger, err := newLogger(cmd.ErrOrStderr(), a.logFormat, a.verbose)
	if err != nil {
		return err
	}
	a.logger = logger
	slog.SetDefault(logger)

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.logger.Debug("configuration loaded", "path", cfg.Path(), "templates", cfg.TemplatesPath())
	return nil
}

// loadConfig reads --config, or the nearest project file. Without a
// project file the defaults apply.
func (a *app) loadConfig() (*config.Config, error) {
	if a.configPath != "" {
		return config.LoadFile(a.configPath)
	}
	cfg, err := config.LoadFromWorkingDir()
	if stderrors.Is(err, config.ErrNotFound) {
		return config.New(), nil
	}
	return cfg, err
}

func newLogger(w io.Writer, format string, verbose bool) (*slog.Logger, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	switch format {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, errors.New("E052").
			WithDetailf("--log-format must be text or json, got %q", format)
	}
}

// open returns a template set and the name to build for arg. An existing
// file is loaded from its own directory; anything else is a template name
// resolved by the configured loader.
func (a *app) open(arg string, metrics *render.Metrics) (*templates.Set, string, error) {
	loader, name := a.loaderFor(arg)
	set, err := a.newSet(loader, metrics)
	return set, name, err
}

func (a *app) loaderFor(arg string) (templates.Loader, string) {
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		base := filepath.Base(arg)
		l := templates.NewDirLoader(filepath.Dir(arg))
		l.Extensions = []string{strings.ToLower(filepath.Ext(base))}
		return l, base
	}
	return a.loader(), arg
}

// loader reads from the configured bucket or template directory.
func (a *app) loader() templates.Loader {
	if a.cfg.UsesS3() {
		s := a.cfg.Templates.S3
		l := templates.NewS3Loader(newS3Client(s.Region), s.Bucket, s.Prefix)
		l.Extensions = a.cfg.Templates.Extensions
		return l
	}
	l := templates.NewDirLoader(a.cfg.TemplatesPath())
	l.Extensions = a.cfg.Templates.Extensions
	return l
}

func (a *app) newSet(loader templates.Loader, metrics *render.Metrics) (*templates.Set, error) {
	fallback, err := a.fallback()
	if err != nil {
		return nil, err
	}
	ttl, err := a.cfg.CacheTTL()
	if err != nil {
		return nil, err
	}
	return templates.New(templates.Options{
		Loader:   loader,
		Registry: dom.Tags,
		Strict:   a.cfg.Compile.Strict,
		Fallback: fallback,
		Queries:  a.cfg.Compile.Queries,
		TTL:      ttl,
		Logger:   a.logger,
		Metrics:  metrics,
	}), nil
}

// fallback resolves compile.fallback to a registered constructor.
func (a *app) fallback() (registry.Constructor, error) {
	name := a.cfg.Compile.Fallback
	if name == "" {
		return nil, nil
	}
	ctor, ok := dom.Tags.Lookup(name)
	if !ok {
		return nil, errors.New("E052").
			WithDetailf("compile.fallback %q is not a registered tag", name).
			WithSuggestion("Run 'blox tags' to list registered tags")
	}
	return ctor, nil
}

func (a *app) rendererConfig(metrics *render.Metrics) render.RendererConfig {
	return render.RendererConfig{
		Formatted: a.cfg.Render.Formatted,
		Indent:    a.cfg.Render.Indent,
		Logger:    a.logger,
		Metrics:   metrics,
	}
}

// newS3Client builds a client from the environment. Static credentials
// come from AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY; without them
// requests are anonymous.
func newS3Client(region string) *s3.Client {
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}

	var creds aws.CredentialsProvider = aws.AnonymousCredentials{}
	id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
	if id != "" && secret != "" {
		token := os.Getenv("AWS_SESSION_TOKEN")
		creds = aws.NewCredentialsCache(aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     id,
				SecretAccessKey: secret,
				SessionToken:    token,
				Source:          "Environment",
			}, nil
		}))
	}

	return s3.New(s3.Options{Region: region, Credentials: creds})
}
