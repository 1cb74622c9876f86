package graphql

import (
	"github.com/graphql-go/graphql"
)

// NewSchema assembles the full query/mutation schema around the resolver set.
func NewSchema(r *Resolver) (graphql.Schema, error) {
	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"fullName":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"email":         &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"licensePlates": &graphql.Field{Type: graphql.NewList(graphql.String)},
			"role":          &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"vehicleType":   &graphql.Field{Type: graphql.String},
			"createdAt":     &graphql.Field{Type: graphql.DateTime},
			"updatedAt":     &graphql.Field{Type: graphql.DateTime},
		},
	})

	// user is nullable: the owner of a historical session may have been a
	// guest whose record was already cleaned up.
	sessionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ParkingSession",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"user":         &graphql.Field{Type: userType},
			"licensePlate": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"faceIdentity": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"checkinTime":  &graphql.Field{Type: graphql.DateTime},
			"checkoutTime": &graphql.Field{Type: graphql.DateTime},
			"status":       &graphql.Field{Type: graphql.String},
			"vehicleType":  &graphql.Field{Type: graphql.String},
		},
	})

	statsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ParkingStats",
		Fields: graphql.Fields{
			"totalCarSlots":  &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"carIn":          &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"carAvailable":   &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"totalBikeSlots": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"bikeIn":         &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"bikeAvailable":  &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		},
	})

	logStatsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "LogStats",
		Fields: graphql.Fields{
			"label":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"totalIn":  &graphql.Field{Type: graphql.Int},
			"totalOut": &graphql.Field{Type: graphql.Int},
		},
	})

	authPayloadType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AuthPayload",
		Fields: graphql.Fields{
			"token": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"user":  &graphql.Field{Type: graphql.NewNonNull(userType)},
		},
	})

	periodEnum := graphql.NewEnum(graphql.EnumConfig{
		Name: "PeriodType",
		Values: graphql.EnumValueConfigMap{
			"DAY":   &graphql.EnumValueConfig{Value: "DAY"},
			"MONTH": &graphql.EnumValueConfig{Value: "MONTH"},
			"YEAR":  &graphql.EnumValueConfig{Value: "YEAR"},
		},
	})

	registerInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "RegisterInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"fullName":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"email":       &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"password":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"role":        &graphql.InputObjectFieldConfig{Type: graphql.String},
			"faceImages":  &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.NewNonNull(graphql.String))},
			"plateImage":  &graphql.InputObjectFieldConfig{Type: graphql.String},
			"vehicleType": &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})

	updateUserInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "UpdateUserInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"fullName":      &graphql.InputObjectFieldConfig{Type: graphql.String},
			"email":         &graphql.InputObjectFieldConfig{Type: graphql.String},
			"password":      &graphql.InputObjectFieldConfig{Type: graphql.String},
			"licensePlates": &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.NewNonNull(graphql.String))},
			"role":          &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"hello": &graphql.Field{
				Type:    graphql.String,
				Resolve: r.hello,
			},
			"me": &graphql.Field{
				Type:    userType,
				Resolve: r.me,
			},
			"getAllSessions": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(sessionType))),
				Resolve: r.allSessions,
			},
			"getActiveSessions": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(sessionType))),
				Resolve: r.activeSessions,
			},
			"getUserHistory": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(sessionType))),
				Args: graphql.FieldConfigArgument{
					"userId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: r.userHistory,
			},
			"getAllUsers": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(userType))),
				Resolve: r.allUsers,
			},
			"getAllEmployees": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(userType))),
				Resolve: r.allEmployees,
			},
			"parkingStats": &graphql.Field{
				Type:    graphql.NewNonNull(statsType),
				Resolve: r.parkingStats,
			},
			"statsLogsByPeriod": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(logStatsType))),
				Args: graphql.FieldConfigArgument{
					"period": &graphql.ArgumentConfig{Type: graphql.NewNonNull(periodEnum)},
				},
				Resolve: r.statsLogsByPeriod,
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"registerUser": &graphql.Field{
				Type: graphql.NewNonNull(userType),
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(registerInput)},
				},
				Resolve: r.registerUser,
			},
			"loginUser": &graphql.Field{
				Type: graphql.NewNonNull(authPayloadType),
				Args: graphql.FieldConfigArgument{
					"email":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.loginUser,
			},
			"logEntry": &graphql.Field{
				Type: sessionType,
				Args: graphql.FieldConfigArgument{
					"faceImages":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.String)))},
					"plateImage":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"vehicleType": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: r.logEntry,
			},
			"logExit": &graphql.Field{
				Type: sessionType,
				Args: graphql.FieldConfigArgument{
					"faceImage":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"plateImage": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.logExit,
			},
			"updateUser": &graphql.Field{
				Type: graphql.NewNonNull(userType),
				Args: graphql.FieldConfigArgument{
					"id":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(updateUserInput)},
				},
				Resolve: r.updateUser,
			},
			"deleteUser": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: r.deleteUser,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}
