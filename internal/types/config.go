package types

type RunMode string

const (
	// ModeLocal runs the API server and the webhook delivery router together
	ModeLocal RunMode = "local"
	// ModeAPI runs the API server and the webhook delivery router
	ModeAPI RunMode = "api"
	// ModeAWSLambdaAPI serves the API from AWS Lambda behind API Gateway
	ModeAWSLambdaAPI RunMode = "aws_lambda_api"
	// ModeAWSLambdaSweep runs the due-invoice sweep on each scheduled Lambda invocation
	ModeAWSLambdaSweep RunMode = "aws_lambda_sweep"
	// ModeTemporalWorker runs the temporal worker that executes the scheduled
	// sweep workflow, and the webhook delivery router
	ModeTemporalWorker RunMode = "temporal_worker"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)
