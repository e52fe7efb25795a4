// Package config loads the YAML configuration shared by the server and the
// analyze CLI.
//
// A file is read, ${VAR} references are expanded from the environment, and the
// result is decoded with gopkg.in/yaml.v3. An optional .env file can be loaded
// into the environment first with LoadDotEnv. Well-known variables
// (KALSHI_API_KEY, KALSHI_RSA_PRIVATE_KEY, OPENAI_API_KEY, ...) fill fields the
// file leaves empty, so a config file is optional.
//
// Example:
//
//	kalshi:
//	  api_key: ${KALSHI_API_KEY}
//	  private_key_path: /etc/kalshi/key.pem
//	llm:
//	  api_key: ${OPENAI_API_KEY}
//	server:
//	  port: 8000
package config
