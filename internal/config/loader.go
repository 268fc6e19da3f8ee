package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	EnvPrefix       = "FLOWREEL_"
	DefaultFileName = "flowreel.yaml"
)

// flagKeys maps global flags onto configuration keys.
var flagKeys = map[string]string{
	"log-level":          "log.level",
	"log-format":         "log.format",
	"database-url":       "database.url",
	"s3-endpoint":        "object_store.endpoint",
	"s3-access-key":      "object_store.access_key",
	"s3-secret-key":      "object_store.secret_key",
	"s3-use-ssl":         "object_store.use_ssl",
	"namespace":          "namespace",
	"ffmpeg-verbose":     "ffmpeg.verbose",
	"hf-token":           "sampler.hf_token",
	"bucket-models":      "object_store.bucket_models",
	"bucket-artifacts":   "object_store.bucket_artifacts",
	"model-store-prefix": "object_store.model_root",
}

// Load reads configuration with precedence flags > env > file > defaults.
// An empty path falls back to flowreel.yaml in the working directory when present.
func Load(path string, flags *pflag.FlagSet) (*Config, string, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultValues(Default()), "."), nil); err != nil {
		return nil, "", fmt.Errorf("load defaults: %w", err)
	}

	used, err := findConfigFile(path)
	if err != nil {
		return nil, "", err
	}
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, "", fmt.Errorf("read config file %s: %w", used, err)
		}
	}

	// FLOWREEL_DATABASE__URL -> database.url
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, "", fmt.Errorf("load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, "", fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, "", fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, used, nil
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

func findConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicit, err)
		}
		return explicit, nil
	}
	for _, name := range []string{DefaultFileName, "flowreel.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("config file %s: %w", name, err)
		}
	}
	return "", nil
}

func defaultValues(c Config) map[string]any {
	return map[string]any{
		"log.level":  c.Log.Level,
		"log.format": c.Log.Format,

		"database.url":                c.Database.URL,
		"database.ping_timeout":       c.Database.PingTimeout.String(),
		"database.max_open_conns":     c.Database.MaxOpenConns,
		"database.max_idle_conns":     c.Database.MaxIdleConns,
		"database.conn_max_lifetime":  c.Database.ConnMaxLifetime.String(),
		"database.conn_max_idle_time": c.Database.ConnMaxIdleTime.String(),

		"object_store.endpoint":         c.ObjectStore.Endpoint,
		"object_store.access_key":       c.ObjectStore.AccessKey,
		"object_store.secret_key":       c.ObjectStore.SecretKey,
		"object_store.region":           c.ObjectStore.Region,
		"object_store.use_ssl":          c.ObjectStore.UseSSL,
		"object_store.bucket_artifacts": c.ObjectStore.BucketArtifacts,
		"object_store.bucket_models":    c.ObjectStore.BucketModels,
		"object_store.model_root":       c.ObjectStore.ModelRoot,

		"namespace": c.Namespace,

		"prompts.flow": c.Prompts.Flow,
		"prompts.step": c.Prompts.Step,

		"grid.rows":   c.Grid.Rows,
		"grid.cols":   c.Grid.Cols,
		"grid.width":  c.Grid.Width,
		"grid.height": c.Grid.Height,
		"grid.match":  c.Grid.Match,

		"film.flow":          c.Film.Flow,
		"film.step":          c.Film.Step,
		"film.artifact_set":  c.Film.ArtifactSet,
		"film.fps":           c.Film.FPS,
		"film.fade_duration": c.Film.FadeDuration,

		"ffmpeg.ffmpeg_path":  c.FFmpeg.FFmpegPath,
		"ffmpeg.ffprobe_path": c.FFmpeg.FFprobePath,
		"ffmpeg.video_codec":  c.FFmpeg.VideoCodec,
		"ffmpeg.pixel_format": c.FFmpeg.PixelFormat,
		"ffmpeg.verbose":      c.FFmpeg.Verbose,

		"sampler.command":       c.Sampler.Command,
		"sampler.model_version": c.Sampler.ModelVersion,
		"sampler.model_dir":     c.Sampler.ModelDir,
		"sampler.model_url":     c.Sampler.ModelURL,
		"sampler.hf_token":      c.Sampler.HFToken,
		"sampler.device_probe":  c.Sampler.DeviceProbe,
		"sampler.temp_dir":      c.Sampler.TempDir,

		"generation.num_frames":         c.Generation.NumFrames,
		"generation.num_steps":          c.Generation.NumSteps,
		"generation.frame_rate":         c.Generation.FrameRate,
		"generation.motion_bucket_id":   c.Generation.MotionBucketID,
		"generation.decoding_timesteps": c.Generation.DecodingTimesteps,
		"generation.low_vram_mode":      c.Generation.LowVRAMMode,
	}
}
