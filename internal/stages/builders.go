package stages

import (
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/datadock/datadock/internal/config"
	"github.com/datadock/datadock/internal/pipeline"
)

// Typed manifest builders. Desired specs are constructed as object trees,
// never as interpolated YAML text, so a bad value shows up as a wrong
// field instead of a parse error at apply time.

func namespaceObject(name string) *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Namespace",
		"metadata": map[string]interface{}{
			"name": name,
		},
	}}
}

// clusterIssuerObject builds the ACME HTTP-01 cluster issuer used by
// per-host certificates.
func clusterIssuerObject(name string) *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "cert-manager.io/v1",
		"kind":       "ClusterIssuer",
		"metadata": map[string]interface{}{
			"name": name,
		},
		"spec": map[string]interface{}{
			"acme": map[string]interface{}{
				"server": "https://acme-v02.api.letsencrypt.org/directory",
				"privateKeySecretRef": map[string]interface{}{
					"name": name + "-account-key",
				},
				"solvers": []interface{}{
					map[string]interface{}{
						"http01": map[string]interface{}{
							"ingress": map[string]interface{}{"class": "traefik"},
						},
					},
				},
			},
		},
	}}
}

// ingressObject routes one host to one service port, with TLS wired to the
// cluster issuer unless TLS is disabled.
func ingressObject(namespace, name, host, service string, port int, issuer, tlsMode string) *unstructured.Unstructured {
	metadata := map[string]interface{}{
		"name":      name,
		"namespace": namespace,
	}
	if tlsMode != config.TLSModeDisabled {
		metadata["annotations"] = map[string]interface{}{
			"cert-manager.io/cluster-issuer": issuer,
		}
	}

	spec := map[string]interface{}{
		"rules": []interface{}{
			map[string]interface{}{
				"host": host,
				"http": map[string]interface{}{
					"paths": []interface{}{
						map[string]interface{}{
							"path":     "/",
							"pathType": "Prefix",
							"backend": map[string]interface{}{
								"service": map[string]interface{}{
									"name": service,
									"port": map[string]interface{}{"number": int64(port)},
								},
							},
						},
					},
				},
			},
		},
	}
	if tlsMode != config.TLSModeDisabled {
		spec["tls"] = []interface{}{
			map[string]interface{}{
				"hosts":      []interface{}{host},
				"secretName": name + "-tls",
			},
		}
	}

	return &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "networking.k8s.io/v1",
		"kind":       "Ingress",
		"metadata":   metadata,
		"spec":       spec,
	}}
}

func deploymentObject(namespace, name, image string, port int, env map[string]string) *unstructured.Unstructured {
	var envList []interface{}
	for k, v := range env {
		envList = append(envList, map[string]interface{}{"name": k, "value": v})
	}
	labels := map[string]interface{}{"app": name}

	return &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "apps/v1",
		"kind":       "Deployment",
		"metadata": map[string]interface{}{
			"name":      name,
			"namespace": namespace,
			"labels":    labels,
		},
		"spec": map[string]interface{}{
			"replicas": int64(1),
			"selector": map[string]interface{}{
				"matchLabels": labels,
			},
			"template": map[string]interface{}{
				"metadata": map[string]interface{}{"labels": labels},
				"spec": map[string]interface{}{
					"containers": []interface{}{
						map[string]interface{}{
							"name":  name,
							"image": image,
							"ports": []interface{}{
								map[string]interface{}{"containerPort": int64(port)},
							},
							"env": envList,
						},
					},
				},
			},
		},
	}}
}

func serviceObject(namespace, name string, port, targetPort int) *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Service",
		"metadata": map[string]interface{}{
			"name":      name,
			"namespace": namespace,
		},
		"spec": map[string]interface{}{
			"selector": map[string]interface{}{"app": name},
			"ports": []interface{}{
				map[string]interface{}{
					"port":       int64(port),
					"targetPort": int64(targetPort),
				},
			},
		},
	}}
}

// cronJobObject builds the scheduled dbt run. The container reads its
// warehouse credentials from the given secret.
func cronJobObject(namespace, name, image, schedule, secretName string, args []string) *unstructured.Unstructured {
	var argList []interface{}
	for _, a := range args {
		argList = append(argList, a)
	}
	return &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "batch/v1",
		"kind":       "CronJob",
		"metadata": map[string]interface{}{
			"name":      name,
			"namespace": namespace,
		},
		"spec": map[string]interface{}{
			"schedule":          schedule,
			"concurrencyPolicy": "Forbid",
			"jobTemplate": map[string]interface{}{
				"spec": map[string]interface{}{
					"template": map[string]interface{}{
						"spec": map[string]interface{}{
							"restartPolicy": "Never",
							"containers": []interface{}{
								map[string]interface{}{
									"name":  name,
									"image": image,
									"args":  argList,
									"envFrom": []interface{}{
										map[string]interface{}{
											"secretRef": map[string]interface{}{"name": secretName},
										},
									},
								},
							},
						},
					},
				},
			},
		},
	}}
}

// appHost derives the public hostname for one application.
func appHost(ctx *pipeline.Context, app string) (string, error) {
	domain, err := ctx.Contract.Require(config.KeyBaseDomain)
	if err != nil {
		return "", fmt.Errorf("cannot derive %s hostname: %w", app, err)
	}
	return app + "." + domain, nil
}
