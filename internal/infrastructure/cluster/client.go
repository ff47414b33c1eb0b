// Package cluster wraps the Kubernetes API for namespace and secret access.
package cluster

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/yourorg/storeplane/internal/domain"
	"github.com/yourorg/storeplane/internal/reliability/circuitbreaker"
	"github.com/yourorg/storeplane/internal/reliability/retry"
)

// Client wraps a Kubernetes clientset with retry and circuit breaker
// protection for the control-plane operations the orchestrators need.
type Client struct {
	clientset      kubernetes.Interface
	logger         *slog.Logger
	retryConfig    *retry.Config
	circuitBreaker *circuitbreaker.CircuitBreaker
}

// NewClient builds a client from in-cluster config, falling back to the given
// kubeconfig path (or the default loading rules when empty).
func NewClient(kubeconfig string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	restConfig, err := rest.InClusterConfig()
	if err != nil {
		loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
		if kubeconfig != "" {
			loadingRules.ExplicitPath = kubeconfig
		}
		restConfig, err = clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
			loadingRules, &clientcmd.ConfigOverrides{},
		).ClientConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load kubernetes config: %w", err)
		}
		logger.Info("loaded kubeconfig")
	} else {
		logger.Info("loaded in-cluster config")
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	cb := circuitbreaker.NewCircuitBreaker(5, 2, 30*time.Second)
	cb.SetStateChangeCallback(func(from, to circuitbreaker.State) {
		logger.Warn("cluster circuit breaker state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})

	return &Client{
		clientset:      clientset,
		logger:         logger,
		retryConfig:    retry.DefaultConfig(),
		circuitBreaker: cb,
	}, nil
}

// NewClientWithClientset is used by tests and by callers that already hold a
// clientset (e.g. a fake).
func NewClientWithClientset(clientset kubernetes.Interface, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		clientset:      clientset,
		logger:         logger,
		retryConfig:    retry.DefaultConfig(),
		circuitBreaker: circuitbreaker.NewCircuitBreaker(5, 2, 30*time.Second),
	}
}

// CreateNamespace creates a namespace, treating "already exists" as success.
func (c *Client) CreateNamespace(ctx context.Context, name string) error {
	if !c.circuitBreaker.AllowRequest() {
		return fmt.Errorf("cluster temporarily unavailable (circuit breaker open)")
	}

	_, err := retry.Do(ctx, c.retryConfig, c.logger, "CreateNamespace", func(ctx context.Context) (struct{}, error) {
		ns := &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: name}}
		_, err := c.clientset.CoreV1().Namespaces().Create(ctx, ns, metav1.CreateOptions{})
		if apierrors.IsAlreadyExists(err) {
			c.logger.Debug("namespace already exists", slog.String("namespace", name))
			return struct{}{}, nil
		}
		return struct{}{}, err
	})

	if err != nil {
		c.circuitBreaker.RecordFailure()
		return fmt.Errorf("failed to create namespace %s: %w", name, err)
	}

	c.circuitBreaker.RecordSuccess()
	c.logger.Info("namespace ensured", slog.String("namespace", name))
	return nil
}

// DeleteNamespace deletes a namespace, ignoring not-found.
func (c *Client) DeleteNamespace(ctx context.Context, name string) error {
	if !c.circuitBreaker.AllowRequest() {
		return fmt.Errorf("cluster temporarily unavailable (circuit breaker open)")
	}

	_, err := retry.Do(ctx, c.retryConfig, c.logger, "DeleteNamespace", func(ctx context.Context) (struct{}, error) {
		err := c.clientset.CoreV1().Namespaces().Delete(ctx, name, metav1.DeleteOptions{})
		if apierrors.IsNotFound(err) {
			return struct{}{}, nil
		}
		return struct{}{}, err
	})

	if err != nil {
		c.circuitBreaker.RecordFailure()
		return fmt.Errorf("failed to delete namespace %s: %w", name, err)
	}

	c.circuitBreaker.RecordSuccess()
	return nil
}

// GetNamespaceStatus returns the namespace phase, or domain.NamespaceTerminated
// when the namespace no longer exists.
func (c *Client) GetNamespaceStatus(ctx context.Context, name string) (string, error) {
	ns, err := c.clientset.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return domain.NamespaceTerminated, nil
		}
		return "", fmt.Errorf("failed to get namespace %s: %w", name, err)
	}
	return string(ns.Status.Phase), nil
}

// ListSecretNames lists secret names in a namespace matching a label selector.
func (c *Client) ListSecretNames(ctx context.Context, namespace, labelSelector string) ([]string, error) {
	secrets, err := c.clientset.CoreV1().Secrets(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: labelSelector,
	})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list secrets in %s: %w", namespace, err)
	}

	names := make([]string, 0, len(secrets.Items))
	for _, item := range secrets.Items {
		names = append(names, item.Name)
	}
	return names, nil
}

// GetSecretData reads a secret and returns its payload base64-encoded, the
// form the credential recovery layer expects to decode.
func (c *Client) GetSecretData(ctx context.Context, namespace, name string) (map[string]string, error) {
	secret, err := c.clientset.CoreV1().Secrets(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to get secret %s/%s: %w", namespace, name, err)
	}

	data := make(map[string]string, len(secret.Data))
	for key, value := range secret.Data {
		// The API server hands secret bytes back decoded; the port contract
		// carries them base64-encoded, matching the wire form.
		data[key] = base64.StdEncoding.EncodeToString(value)
	}
	return data, nil
}
