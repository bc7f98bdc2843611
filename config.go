package nutricoach

type ModelConfig struct {
	ModelID     string  `env:"MODEL_ID,default=us.anthropic.claude-3-7-sonnet-20250219-v1:0"`
	MaxTokens   int32   `env:"MAX_TOKENS,default=2048"`
	Temperature float32 `env:"TEMPERATURE,default=0.2"`
	TopP        float32 `env:"TOP_P,default=0.9"`
}

type CheckoutConfig struct {
	Username    string `env:"PICNIC_USERNAME"`
	Password    string `env:"PICNIC_PASSWORD"`
	CartBaseURL string `env:"PICNIC_CART_URL,default=https://app.picnic.app/cart"`
	ClearCart   bool   `env:"PICNIC_CLEAR_CART,default=false"`
	MCPCommand  string `env:"PICNIC_MCP_COMMAND,default=npx"`
	MCPArgs     string `env:"PICNIC_MCP_ARGS,default=-y mcp-picnic"`
	SearchLimit int    `env:"PICNIC_SEARCH_LIMIT,default=5"`
}

type ServerConfig struct {
	Addr               string `env:"COACH_ADDR,default=:8000"`
	Backend            string `env:"COACH_BACKEND,default=rule"`
	GroceryMode        string `env:"COACH_GROCERY_MODE,default=demo"`
	CatalogPath        string `env:"COACH_CATALOG_PATH,default=artifacts/catalog.json"`
	BaseOllamaEndpoint string `env:"BASE_OLLAMA_ENDPOINT,default=http://localhost:11434"`
}

type SpeechConfig struct {
	APIKey  string `env:"ELEVENLABS_API_KEY"`
	ModelID string `env:"ELEVENLABS_STT_MODEL,default=scribe_v1"`
}
