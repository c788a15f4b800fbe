package config

import (
	"os"
	"sync"
)

// ServerlessConfig describes the Lambda execution environment, empty when
// running outside of it.
type ServerlessConfig struct {
	IsLambda     bool
	FunctionName string
	Version      string
	MemoryMB     int
	Region       string
	Stage        string
}

// Global serverless configuration
var (
	serverlessConfig *ServerlessConfig
	serverlessOnce   sync.Once
)

// GetServerlessConfig returns the serverless configuration
func GetServerlessConfig() *ServerlessConfig {
	serverlessOnce.Do(func() {
		serverlessConfig = loadServerlessConfig()
	})
	return serverlessConfig
}

func loadServerlessConfig() *ServerlessConfig {
	return &ServerlessConfig{
		IsLambda:     isRunningInLambda(),
		FunctionName: os.Getenv("AWS_LAMBDA_FUNCTION_NAME"),
		Version:      os.Getenv("AWS_LAMBDA_FUNCTION_VERSION"),
		MemoryMB:     GetEnvAsInt("AWS_LAMBDA_FUNCTION_MEMORY_SIZE", 0),
		Region:       os.Getenv("AWS_REGION"),
		Stage:        GetEnv("STAGE", "dev"),
	}
}

// isRunningInLambda detects if the application is running in AWS Lambda
func isRunningInLambda() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

// IsServerlessMode returns true if running in serverless mode
func IsServerlessMode() bool {
	return GetServerlessConfig().IsLambda
}

// GetDeploymentMode returns the current deployment mode
func GetDeploymentMode() string {
	if IsServerlessMode() {
		return "serverless"
	}
	return "local"
}

// AdaptConfigForServerless applies the settings the Lambda runtime needs:
// JSON logs for CloudWatch and the function name as the service name when
// none was configured.
func AdaptConfigForServerless(config *Config, sc *ServerlessConfig) *Config {
	if sc == nil || !sc.IsLambda {
		return config
	}

	config.Log.Format = "json"
	if config.ServiceName == "scandium-app" && sc.FunctionName != "" {
		config.ServiceName = sc.FunctionName
	}
	if config.Version == "dev" && sc.Version != "" {
		config.Version = sc.Version
	}

	return config
}

// GetOptimizedConfig returns configuration optimized for the current deployment mode
func GetOptimizedConfig() (*Config, error) {
	config, err := Load()
	if err != nil {
		return nil, err
	}

	return AdaptConfigForServerless(config, GetServerlessConfig()), nil
}
