package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const DefaultPath = "/etc/nitrosense/nitrosense.yaml"

type Config struct {
	Env      string         `yaml:"env" env-default:"prod"`
	Log      LogConfig      `yaml:"log"`
	Socket   SocketConfig   `yaml:"socket"`
	Hardware HardwareConfig `yaml:"hardware"`
	EC       ECConfig       `yaml:"ec"`
	Voltage  VoltageConfig  `yaml:"voltage"`
	Settings SettingsConfig `yaml:"settings"`
	Keyboard KeyboardConfig `yaml:"keyboard"`
	History  HistoryConfig  `yaml:"history"`
	Health   HealthConfig   `yaml:"health"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"NITROSENSE_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env-default:"text"`
}

type SocketConfig struct {
	Path string   `yaml:"path" env:"NITROSENSE_SOCKET" env-default:"/tmp/nitrosense.sock"`
	Mode FileMode `yaml:"mode" env:"NITROSENSE_SOCKET_MODE" env-default:"0666"`
}

// FileMode holds permission bits written in octal, as "0666", "666" or
// "0o666". A bare YAML 0666 is read as octal too.
type FileMode os.FileMode

func (m *FileMode) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0o"), "0O")

	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return fmt.Errorf("file mode %q is not octal: %w", text, err)
	}
	if v > 0o777 {
		return fmt.Errorf("file mode %q has bits outside 0777", text)
	}
	*m = FileMode(v)
	return nil
}

func (m FileMode) Perm() os.FileMode {
	return os.FileMode(m).Perm()
}

type HardwareConfig struct {
	ProductNamePath string `yaml:"product_name_path" env-default:"/sys/devices/virtual/dmi/id/product_name"`
	CPUInfoPath     string `yaml:"cpuinfo_path" env-default:"/proc/cpuinfo"`
}

type ECConfig struct {
	ECSysPath    string `yaml:"ec_sys_path" env-default:"/sys/kernel/debug/ec/ec0/io"`
	ECSysModule  string `yaml:"ec_sys_module" env-default:"ec_sys"`
	ACPIECPath   string `yaml:"acpi_ec_path" env-default:"/dev/ec"`
	ACPIECModule string `yaml:"acpi_ec_module" env-default:"acpi_ec"`
	Modprobe     string `yaml:"modprobe" env-default:"modprobe"`
}

type VoltageConfig struct {
	Amdctl string `yaml:"amdctl" env-default:"amdctl"`
	Sudo   string `yaml:"sudo" env-default:"sudo"`
	Rdmsr  string `yaml:"rdmsr" env-default:"rdmsr"`
}

type SettingsConfig struct {
	Dir       string `yaml:"dir" env:"NITROSENSE_CONFIG_DIR" env-default:"/etc/nitrosense"`
	NitroFile string `yaml:"nitro_file" env-default:"nitrosense.conf"`
	RGBFile   string `yaml:"rgb_file" env-default:"rbg.conf"`
}

type KeyboardConfig struct {
	StaticDevice  string `yaml:"static_device" env-default:"/dev/acer-gkbbl-static-0"`
	DynamicDevice string `yaml:"dynamic_device" env-default:"/dev/acer-gkbbl-0"`
}

type HistoryConfig struct {
	Enabled       bool          `yaml:"enabled" env-default:"false"`
	Path          string        `yaml:"path" env-default:"/var/lib/nitrosense/history.db"`
	MaxAge        time.Duration `yaml:"max_age" env-default:"24h"`
	PruneInterval time.Duration `yaml:"prune_interval" env-default:"10m"`
}

type HealthConfig struct {
	Enabled bool   `yaml:"enabled" env-default:"false"`
	Address string `yaml:"address" env-default:"127.0.0.1:9515"`
}

// MustLoad reads the daemon config. A missing file is not an error: every
// field has a default and can still be overridden from the environment.
func MustLoad(configPath string) *Config {
	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}

	if configPath == "" {
		configPath = DefaultPath
	}

	var cfg Config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			panic("failed to read config from environment: " + err.Error())
		}
		return &cfg
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("failed to read config: " + err.Error())
	}

	return &cfg
}
