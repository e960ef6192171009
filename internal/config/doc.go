// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation,
// and LoadDotEnv can populate the environment from .env files first.
//
//	credentials:
//	  key_id: ${APCA_API_KEY_ID}
//	  secret_key: ${APCA_API_SECRET_KEY}
//	rest:
//	  paper: true
//	  rate_limit: {capacity: 200, fill_rate: 3}
//	stream:
//	  type: data
//	  feed: iex
//	  max_retries: 5
//	  retry_delay: 3s
package config
