package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ByLCY/foodlabels/label"
)

// 默认值。
const (
	DefaultOutput = "food-labels.pdf"
	DefaultAddr   = ":8080"
)

// Config 是 foodlabels.toml 的内容。命令行参数显式给出时优先于配置文件。
type Config struct {
	Density label.Density `toml:"density"`
	Output  string        `toml:"output"`
	Debug   string        `toml:"debug"` // 布局调试 JSON 输出路径，为空表示不输出
	Data    string        `toml:"data"`  // 绑定数据 JSON 文件路径
	Server  Server        `toml:"server"`
	PDF     PDF           `toml:"pdf"`
}

// Server 配置 HTTP 服务。
type Server struct {
	Addr string `toml:"addr"`
}

// PDF 覆盖导出文件的元信息与字体。
type PDF struct {
	Author   string   `toml:"author"`
	Keywords []string `toml:"keywords"`
	Fonts    Fonts    `toml:"fonts"`
}

// Fonts 是替换内置字体的 TTF/OTF 文件路径，为空的字重使用内置字体。
// 相对路径以配置文件所在目录为基准。
type Fonts struct {
	Regular string `toml:"regular"`
	Bold    string `toml:"bold"`
}

// Default 返回内置默认配置。
func Default() Config {
	return Config{
		Density: label.DensityNormal,
		Output:  DefaultOutput,
		Server:  Server{Addr: DefaultAddr},
	}
}

// Load 读取 TOML 配置，未出现的键保留默认值。path 为空时直接返回默认配置。
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config: 读取 %s 失败: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config: %s 含有未知配置项 %q", path, undecoded[0].String())
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	cfg.PDF.Fonts.Regular = resolvePath(path, cfg.PDF.Fonts.Regular)
	cfg.PDF.Fonts.Bold = resolvePath(path, cfg.PDF.Fonts.Bold)
	return cfg, nil
}

// LoadOptional 与 Load 相同，但文件不存在时返回默认配置。
func LoadOptional(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

func resolvePath(configPath, p string) string {
	p = strings.TrimSpace(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(configPath), p)
}

func (c *Config) validate() error {
	if c.Density == "" {
		c.Density = label.DensityNormal
	} else {
		d, err := label.ParseDensity(string(c.Density))
		if err != nil {
			return err
		}
		c.Density = d
	}
	if strings.TrimSpace(c.Output) == "" {
		c.Output = DefaultOutput
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		c.Server.Addr = DefaultAddr
	}
	return nil
}
