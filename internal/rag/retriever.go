// Package rag — примитивный поиск по базе знаний: совпадение ключевых
// слов, без векторов и без внешних сервисов.
package rag

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

const (
	chunkWords          = 500
	DefaultContextChars = 1500
)

type Retriever struct {
	mu        sync.RWMutex
	documents map[string][]string // имя документа -> чанки
	log       zerolog.Logger
}

type Result struct {
	Content string
	Source  string
	ChunkID int
	Score   int
}

func NewRetriever(log zerolog.Logger) *Retriever {
	return &Retriever{
		documents: make(map[string][]string),
		log:       log.With().Str("svc", "rag").Logger(),
	}
}

// LoadDir загружает все .txt из каталога; пустые и нечитаемые файлы
// пропускаются с warn-ом
func (r *Retriever) LoadDir(dir string) error {
	paths, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return err
	}
	for _, p := range paths {
		if err := r.LoadDocument(p); err != nil {
			r.log.Warn().Err(err).Str("path", p).Msg("document skipped")
		}
	}
	return nil
}

func (r *Retriever) LoadDocument(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	text := string(raw)
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("document %s is empty", path)
	}

	name := filepath.Base(path)
	r.AddDocument(name, text)
	return nil
}

func (r *Retriever) AddDocument(name, text string) {
	chunks := chunkText(text, chunkWords)

	r.mu.Lock()
	r.documents[name] = chunks
	r.mu.Unlock()

	r.log.Info().Str("doc", name).Int("chunks", len(chunks)).Msg("document indexed")
}

// Search — подсчёт слов запроса, встречающихся в чанке, топ-N по счёту
func (r *Retriever) Search(query string, n int) []Result {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.documents) == 0 {
		return nil
	}

	queryWords := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(query)) {
		queryWords[w] = struct{}{}
	}

	var results []Result
	for name, chunks := range r.documents {
		for i, chunk := range chunks {
			lower := strings.ToLower(chunk)
			score := 0
			for w := range queryWords {
				if strings.Contains(lower, w) {
					score++
				}
			}
			if score > 0 {
				results = append(results, Result{
					Content: chunk,
					Source:  name,
					ChunkID: i,
					Score:   score,
				})
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > n {
		results = results[:n]
	}
	return results
}

// RelevantContext собирает контекст из топ-чанков, не превышая maxChars
func (r *Retriever) RelevantContext(query string, maxChars int) string {
	found := r.Search(query, 5)
	if len(found) == 0 {
		return ""
	}

	var parts []string
	total := 0
	for _, doc := range found {
		part := fmt.Sprintf("[Источник: %s]\n%s\n\n", doc.Source, doc.Content)
		if total+len(part) > maxChars {
			break
		}
		parts = append(parts, part)
		total += len(part)
	}

	return strings.Join(parts, "\n")
}

type Stats struct {
	TotalChunks    int
	TotalDocuments int
	Documents      []string
}

func (r *Retriever) CollectionStats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st := Stats{TotalDocuments: len(r.documents)}
	for name, chunks := range r.documents {
		st.TotalChunks += len(chunks)
		st.Documents = append(st.Documents, name)
	}
	sort.Strings(st.Documents)
	return st
}

func chunkText(text string, size int) []string {
	words := strings.Fields(text)
	var chunks []string
	for i := 0; i < len(words); i += size {
		end := i + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
	}
	return chunks
}
