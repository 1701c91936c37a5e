package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load 读取主配置并完成全部准备：深度优先展开 include 闭包（被包含文件
// 先合并，主文件最后覆盖），按 toml 标签弱类型解码，再对未显式出现的键
// 套默认值，最后整体校验。
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	files, err := expandIncludes(abs, make(map[string]bool), make(map[string]bool))
	if err != nil {
		return nil, err
	}

	merged := viper.New()
	merged.SetConfigType("yaml")
	for _, file := range files {
		part := viper.New()
		part.SetConfigFile(file)
		if err := part.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file failed (%s): %w", file, err)
		}
		if err := merged.MergeConfigMap(part.AllSettings()); err != nil {
			return nil, fmt.Errorf("merging config file failed (%s): %w", file, err)
		}
	}

	var cfg Config
	if err := merged.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "toml"
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}

	explicit := make(keySet)
	markKeys("", merged.AllSettings(), explicit)
	cfg.applyDefaults(explicit)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// expandIncludes 深度优先收集 include 闭包。seen 去重，stack 检测环。
// 返回顺序保证被包含文件排在包含者之前。
func expandIncludes(path string, seen, stack map[string]bool) ([]string, error) {
	path = filepath.Clean(path)
	if stack[path] {
		return nil, fmt.Errorf("include cycle detected: %s", path)
	}
	if seen[path] {
		return nil, nil
	}
	stack[path] = true
	defer delete(stack, path)

	includes, err := includeList(path)
	if err != nil {
		return nil, fmt.Errorf("parsing include failed (%s): %w", path, err)
	}
	dir := filepath.Dir(path)
	var ordered []string
	for _, inc := range includes {
		if !filepath.IsAbs(inc) {
			inc = filepath.Join(dir, inc)
		}
		sub, err := expandIncludes(inc, seen, stack)
		if err != nil {
			return nil, err
		}
		ordered = append(ordered, sub...)
	}
	seen[path] = true
	return append(ordered, path), nil
}

// includeList 只读取文件顶层的 include 键，缺失视为无包含。
func includeList(path string) ([]string, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	switch raw := v.Get("include").(type) {
	case nil:
		return nil, nil
	case []string:
		return trimNonEmpty(raw), nil
	case []any:
		out := make([]string, 0, len(raw))
		for _, item := range raw {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("include only supports strings")
			}
			out = append(out, s)
		}
		return trimNonEmpty(out), nil
	default:
		return nil, fmt.Errorf("include must be a string array")
	}
}

func trimNonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// markKeys 把 settings 树展平为小写点分键记入 dest。数组整体记一个键，
// 数组元素内的子键沿用同一前缀。显式出现过的键不再套默认值，false 与 0
// 也算显式配置。
func markKeys(prefix string, node any, dest keySet) {
	switch val := node.(type) {
	case map[string]any:
		for k, v := range val {
			key := strings.ToLower(strings.TrimSpace(k))
			if key == "" {
				continue
			}
			if prefix != "" {
				key = prefix + "." + key
			}
			markKeys(key, v, dest)
		}
	case []any:
		if prefix != "" {
			dest.mark(prefix)
		}
		for _, item := range val {
			markKeys(prefix, item, dest)
		}
	default:
		if prefix != "" {
			dest.mark(prefix)
		}
	}
}
