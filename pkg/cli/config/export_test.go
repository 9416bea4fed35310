package config

// NewAuthForTest creates an Auth config for testing purposes
func NewAuthForTest(secret string) *Auth {
	return &Auth{secret: secret}
}

// NewGeminiForTest creates a Gemini config for testing purposes
func NewGeminiForTest(projectID, location string) *Gemini {
	return &Gemini{
		projectID: projectID,
		location:  location,
	}
}

// NewVectorDBForTest creates a VectorDB config for testing purposes
func NewVectorDBForTest(backend, dataDir, dsn string) *VectorDB {
	return &VectorDB{
		backend: backend,
		dataDir: dataDir,
		dsn:     dsn,
	}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}

// NewChunkingForTest creates a Chunking config for testing purposes
func NewChunkingForTest(size, overlap int) *Chunking {
	return &Chunking{
		chunkSize:    size,
		chunkOverlap: overlap,
	}
}
