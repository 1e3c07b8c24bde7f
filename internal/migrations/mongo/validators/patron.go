package validators

import "go.mongodb.org/mongo-driver/bson"

var PatronValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"status",
			"category_id",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum":     []string{"active", "suspended", "expired"},
			},

			"category_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},
		},
	},
}

var PatronCategoryValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"loan_period_days",
			"borrowing_limit",
			"can_renew",
			"max_renewals",
			"fine_rate_per_day",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"name": bson.M{
				"bsonType":  "string",
				"maxLength": 100,
			},

			"loan_period_days": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},

			"borrowing_limit": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"can_renew": bson.M{
				"bsonType": "bool",
			},

			"max_renewals": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"fine_rate_per_day": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},
		},
	},
}
