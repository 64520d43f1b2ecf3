package config

const (
	defaultConfigPath     = "~/.config/occlum/exec.toml"
	projectConfigFile     = "occlum_exec.toml"
	defaultProbeTimeoutMS = 2000
	defaultStopTimeoutMS  = 5000
	defaultLockWaitMS     = 60000
	defaultInstanceDir    = "./.occlum"
	defaultEnclaveLog     = "off"
	defaultPALLibrary     = "libocclum-pal.so"
	defaultLogLevel       = "info"
	defaultLogFormat      = "auto"

	// EnvInstanceDir overrides enclave.instance_dir.
	EnvInstanceDir = "OCCLUM_INSTANCE_DIR"
	// EnvEnclaveLogLevel overrides enclave.log_level.
	EnvEnclaveLogLevel = "OCCLUM_LOG_LEVEL"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			ProbeTimeoutMS: defaultProbeTimeoutMS,
			StopTimeoutMS:  defaultStopTimeoutMS,
			StartupLock:    true,
			LockWaitMS:     defaultLockWaitMS,
			PIDFile:        true,
		},
		Enclave: Enclave{
			InstanceDir: defaultInstanceDir,
			LogLevel:    defaultEnclaveLog,
			PALLibrary:  defaultPALLibrary,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
