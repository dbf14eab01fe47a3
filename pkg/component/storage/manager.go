package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kart-io/newsloom/pkg/infra/pool"
)

// Manager manages multiple storage clients and provides centralized
// health checking and lifecycle management. Safe for concurrent use.
//
// Example usage:
//
//	mgr := storage.NewManager()
//	mgr.MustRegister("mongodb", mongoClient)
//	mgr.MustRegister("milvus", milvusClient)
//
//	statuses := mgr.HealthCheckAll(ctx)
//	defer mgr.CloseAll()
type Manager struct {
	mu         sync.RWMutex
	clients    map[string]Client
	healthPool *pool.Pool
}

// NewManager creates a new storage manager instance.
func NewManager() *Manager {
	// 健康检查并行执行，失败时降级为直接创建 goroutine
	healthPool, _ := pool.NewPool("storage-health", pool.BackgroundPool, pool.BackgroundPoolConfig())
	return &Manager{
		clients:    make(map[string]Client),
		healthPool: healthPool,
	}
}

// Register registers a storage client with the given name.
// Returns an error if a client with the same name is already registered.
func (m *Manager) Register(name string, client Client) error {
	if name == "" {
		return ErrInvalidConfig.WithMessage("client name cannot be empty")
	}
	if client == nil {
		return ErrInvalidConfig.WithMessage("client cannot be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.clients[name]; exists {
		return ErrClientAlreadyExists.WithMessage(fmt.Sprintf("client '%s' is already registered", name))
	}

	m.clients[name] = client
	return nil
}

// MustRegister registers a storage client and panics if registration fails.
func (m *Manager) MustRegister(name string, client Client) {
	if err := m.Register(name, client); err != nil {
		panic(fmt.Sprintf("failed to register storage client: %v", err))
	}
}

// Get retrieves a storage client by name.
func (m *Manager) Get(name string) (Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	client, exists := m.clients[name]
	if !exists {
		return nil, ErrClientNotFound.WithMessage(fmt.Sprintf("client '%s' not found", name))
	}

	return client, nil
}

// Has checks if a client with the given name is registered.
func (m *Manager) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.clients[name]
	return exists
}

// List returns the names of all registered clients.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.clients))
	for name := range m.clients {
		names = append(names, name)
	}
	return names
}

// HealthCheck performs a health check on a specific client.
func (m *Manager) HealthCheck(ctx context.Context, name string) HealthStatus {
	client, err := m.Get(name)
	if err != nil {
		return HealthStatus{
			Name:    name,
			Healthy: false,
			Error:   err,
		}
	}

	start := time.Now()
	err = client.Ping(ctx)
	latency := time.Since(start)

	return HealthStatus{
		Name:    name,
		Healthy: err == nil,
		Latency: latency,
		Error:   err,
	}
}

// HealthCheckAll performs health checks on all registered clients concurrently.
// 使用 ants 池执行并行健康检查，避免无限制创建 goroutine
func (m *Manager) HealthCheckAll(ctx context.Context) map[string]HealthStatus {
	m.mu.RLock()
	clients := make(map[string]Client, len(m.clients))
	for name, client := range m.clients {
		clients[name] = client
	}
	m.mu.RUnlock()

	statuses := make(map[string]HealthStatus, len(clients))
	var statusMu sync.Mutex
	var wg sync.WaitGroup

	for name, client := range clients {
		wg.Add(1)
		task := func(n string, c Client) {
			defer wg.Done()

			start := time.Now()
			err := c.Ping(ctx)
			latency := time.Since(start)

			statusMu.Lock()
			statuses[n] = HealthStatus{
				Name:    n,
				Healthy: err == nil,
				Latency: latency,
				Error:   err,
			}
			statusMu.Unlock()
		}

		n, c := name, client
		if m.healthPool != nil {
			if submitErr := m.healthPool.Submit(func() { task(n, c) }); submitErr == nil {
				continue
			}
		}
		go task(n, c)
	}

	wg.Wait()
	return statuses
}

// AllHealthy reports whether every registered client passes its health check.
func (m *Manager) AllHealthy(ctx context.Context) bool {
	statuses := m.HealthCheckAll(ctx)
	for _, status := range statuses {
		if !status.Healthy {
			return false
		}
	}
	return true
}

// Close closes a specific client and removes it from the manager.
func (m *Manager) Close(name string) error {
	client, err := m.Get(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.clients, name)
	m.mu.Unlock()

	return client.Close()
}

// CloseAll closes every registered client and releases the health pool.
// The first close error is returned; remaining clients are still closed.
func (m *Manager) CloseAll() error {
	m.mu.Lock()
	clients := m.clients
	m.clients = make(map[string]Client)
	m.mu.Unlock()

	var firstErr error
	for name, client := range clients {
		if err := client.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s: %w", name, err)
		}
	}

	if m.healthPool != nil {
		m.healthPool.Release()
	}
	return firstErr
}
