package store

import (
	"log"
	"os"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"tableflip.dev/taskboard/pkg/api"
	"tableflip.dev/taskboard/pkg/task"
)

// Config is the resolved runtime configuration.
type Config interface {
	BasePath() string
	APIURL() string
	Board() int64
	DayWidth() int
	Gutter() int
	GroupBy() task.GroupBy
	Timeout() time.Duration
}

// LoadConfig reads .taskboard.yaml from $TASKBOARD_CONFIG_PATH, the working
// directory or $HOME, with TASKBOARD_* environment overrides.
func LoadConfig() (Config, error) {
	viper.SetDefault("path", "~/.taskboard")
	viper.SetDefault("api", api.DefaultBaseURL)
	viper.SetDefault("board", 0)
	viper.SetDefault("day-width", 4)
	viper.SetDefault("gutter", 24)
	viper.SetDefault("group-by", string(task.GroupNone))
	viper.SetDefault("timeout", 15*time.Second)
	viper.SetConfigName(".taskboard") // .yaml is implicit
	viper.SetEnvPrefix("TASKBOARD")
	viper.AutomaticEnv()

	if override := os.Getenv("TASKBOARD_CONFIG_PATH"); override != "" {
		viper.AddConfigPath(override)
	}
	viper.AddConfigPath("./")
	viper.AddConfigPath("$HOME")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("store: reading config file: %v", err)
			return nil, err
		}
	}

	path, err := homedir.Expand(viper.GetString("path"))
	if err != nil {
		return nil, err
	}
	groupBy, err := task.ParseGroupBy(viper.GetString("group-by"))
	if err != nil {
		groupBy = task.GroupNone
	}

	return &fileConfig{
		Path:       path,
		API:        viper.GetString("api"),
		BoardID:    viper.GetInt64("board"),
		Day:        viper.GetInt("day-width"),
		GutterSize: viper.GetInt("gutter"),
		Group:      groupBy,
		HTTP:       viper.GetDuration("timeout"),
	}, nil
}

type fileConfig struct {
	Path       string        `json:"path"`
	API        string        `json:"api"`
	BoardID    int64         `json:"board"`
	Day        int           `json:"day-width"`
	GutterSize int           `json:"gutter"`
	Group      task.GroupBy  `json:"group-by"`
	HTTP       time.Duration `json:"timeout"`
}

func (f *fileConfig) BasePath() string { return f.Path }
func (f *fileConfig) APIURL() string { return f.API }
func (f *fileConfig) Board() int64 { return f.BoardID }
func (f *fileConfig) DayWidth() int { return f.Day }
func (f *fileConfig) Gutter() int { return f.GutterSize }
func (f *fileConfig) GroupBy() task.GroupBy { return f.Group }
func (f *fileConfig) Timeout() time.Duration { return f.HTTP }
