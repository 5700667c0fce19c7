// Package stages defines the deployment stages in their fixed order:
// cluster foundation, shared data services, applications, presentation,
// validation. The order is a manually linearized dependency graph; later
// stages assume earlier stages' resources exist, so it must not be
// reordered.
package stages

import "github.com/datadock/datadock/internal/pipeline"

// All returns every stage in declared order.
func All() []pipeline.Stage {
	return []pipeline.Stage{
		&Foundation{},
		&Postgres{},
		&Minio{},
		&Airbyte{},
		&N8N{},
		&Zammad{},
		&Metabase{},
		&Dbt{},
		&Portal{},
		&Verify{},
	}
}

// Names returns the stage selector names in declared order, for help text.
func Names() []string {
	stages := All()
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.Name()
	}
	return names
}
